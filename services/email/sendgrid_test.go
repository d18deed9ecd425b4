package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core"
)

func TestSendgridService_deliver(t *testing.T) {
	conf := &core.Config{AppName: "School Hub", TestMode: true, SendgridApiKey: "sg-key"}
	conf.DefaultFromEmail = mail.Address{Address: "noreply@school.test"}
	core.ParseEmailTemplates(conf, nopLogger{})

	office := []mail.Address{{Name: "Office", Address: "office@school.test"}}

	withAttachment := func() *core.EmailMessage {
		msg := &core.EmailMessage{To: office, Subject: "Import report", BodyStr: "2 rows rejected"}
		require.NoError(t, msg.Attach(bytes.NewReader([]byte("row,category,message\n")), "students_import_issues.csv", "text/csv"))
		return msg
	}

	tests := []struct {
		name      string
		msg       *core.EmailMessage
		status    int
		wantErr   string
		wantCalls int
		wantBody  []string
	}{
		{
			name:    "render failure",
			msg:     &core.EmailMessage{To: office, Subject: "Import report", TemplateName: "import_report", TemplateData: 42},
			wantErr: "rendering email",
		},
		{
			name: "no recipients",
			msg:  &core.EmailMessage{Subject: "Import report", BodyStr: "done"},
		},
		{
			name:      "sent",
			msg:       withAttachment(),
			status:    202,
			wantCalls: 1,
			wantBody:  []string{"[School Hub] Import report", "office@school.test", "2 rows rejected", "students_import_issues.csv"},
		},
		{
			name:      "rejected by sendgrid",
			msg:       withAttachment(),
			status:    400,
			wantErr:   "sending email: status 400",
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []rest.Request
			svc := NewSendgridService(conf, nopLogger{}).(*sendgridService)
			svc.api = func(req rest.Request) (*rest.Response, error) {
				calls = append(calls, req)
				return &rest.Response{StatusCode: tt.status, Body: "bad request"}, nil
			}

			err := svc.deliver(tt.msg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			require.Len(t, calls, tt.wantCalls)
			for _, want := range tt.wantBody {
				assert.True(t, strings.Contains(string(calls[0].Body), want), "body should contain %q", want)
			}
			if tt.wantCalls > 0 {
				assert.Equal(t, rest.Post, calls[0].Method)
				assert.Equal(t, "Bearer sg-key", calls[0].Headers["Authorization"])
			}
		})
	}
}
