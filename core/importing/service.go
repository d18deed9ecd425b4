package importing

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolhub/core"
)

var ErrUnknownKind = errors.New("unknown import kind")

type (
	// ReportData is the context of the import report email.
	ReportData struct {
		Kind      string
		ActorName string
		Outcome   *Outcome
		HasIssues bool
	}

	Service struct {
		importers  map[string]Importer
		kinds      []string
		logger     core.Logger
		mailSvc    core.EmailService
		recipients []mail.Address
	}
)

func NewService(conf *core.Config, logger core.Logger, mailSvc core.EmailService, importers ...Importer) *Service {
	svc := &Service{
		importers:  make(map[string]Importer, len(importers)),
		logger:     logger,
		mailSvc:    mailSvc,
		recipients: conf.Import.ReportRecipients,
	}
	for _, imp := range importers {
		if _, dup := svc.importers[imp.Kind()]; !dup {
			svc.kinds = append(svc.kinds, imp.Kind())
		}
		svc.importers[imp.Kind()] = imp
	}
	return svc
}

// Kinds lists the registered import kinds, in registration order.
func (svc *Service) Kinds() []string {
	return append([]string(nil), svc.kinds...)
}

func (svc *Service) Importer(kind string) (Importer, error) {
	imp, ok := svc.importers[kind]
	if !ok {
		return nil, errors.Wrap(ErrUnknownKind, kind)
	}
	return imp, nil
}

func (svc *Service) Import(ctx context.Context, kind string, src io.Reader, meta Meta) (*Outcome, error) {
	imp, err := svc.Importer(kind)
	if err != nil {
		return nil, err
	}
	if meta.Now.IsZero() {
		meta.Now = time.Now().UTC()
	}

	out, err := imp.Import(ctx, src, meta)
	if err != nil {
		return nil, err
	}
	svc.logger.Info(fmt.Sprintf(
		"import %s by %s: %d rows, %d uploaded, %d duplicates, %d invalid references, %d errors",
		kind, meta.Actor, out.TotalRows, out.SuccessfulUploads, out.Duplicates, out.InvalidReferences, out.Errors,
	))
	svc.notify(kind, meta, out)
	return out, nil
}

// ImportFile imports the upload stored at `path`. The file is removed once done, whatever happens.
func (svc *Service) ImportFile(ctx context.Context, kind, path string, meta Meta) (*Outcome, error) {
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			svc.logger.Warn(fmt.Sprintf("importing.ImportFile: removing %s: %v", path, err), err)
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	return svc.Import(ctx, kind, f, meta)
}

// Template returns the file name and the content of the CSV template of `kind`.
func (svc *Service) Template(kind string) (string, []byte, error) {
	imp, err := svc.Importer(kind)
	if err != nil {
		return "", nil, err
	}
	return TemplateFilename(kind), imp.Template(), nil
}

func (svc *Service) notify(kind string, meta Meta, out *Outcome) {
	if svc.mailSvc == nil || len(svc.recipients) == 0 {
		return
	}

	msg := &core.EmailMessage{
		To:           svc.recipients,
		Subject:      fmt.Sprintf("Bulk import of %s: %d/%d rows uploaded", kind, out.SuccessfulUploads, out.TotalRows),
		TemplateName: "import_report",
		TemplateData: ReportData{Kind: kind, ActorName: meta.ActorName, Outcome: out, HasIssues: out.HasIssues()},
	}
	if out.HasIssues() {
		if err := msg.Attach(bytes.NewReader(IssuesCSV(out)), kind+"_import_issues.csv", "text/csv"); err != nil {
			svc.logger.Error(fmt.Sprintf("importing.notify: attaching issues: %v", err), err)
		}
	}
	svc.mailSvc.SendMessages(msg)
}

// IssuesCSV lists the rejected rows of `out` as comma separated values.
func IssuesCSV(out *Outcome) []byte {
	var buff bytes.Buffer
	w := csv.NewWriter(&buff)
	_ = w.Write([]string{"row", "category", "message"})
	for _, is := range out.Issues() {
		_ = w.Write([]string{strconv.Itoa(is.Row), is.Category, is.Message})
	}
	w.Flush()
	return buff.Bytes()
}
