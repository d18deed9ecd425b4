package testutil

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/auth"
	"github.com/trezcool/schoolhub/core/student"
)

// NewConfig returns a TEST config whose uploads land in a per-test temp dir.
func NewConfig(t *testing.T) *core.Config {
	conf := &core.Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "School Hub",
		SecretKey: "test-secret-key",
	}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.Import.UploadDir = t.TempDir()
	conf.Import.MaxUploadSize = 1 << 20
	conf.Import.BodyLimit = "2M"
	conf.Import.MaxFiltersPerQuery = 500
	return conf
}

// NewValidator returns a validator with the app's custom tags and translations registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	return validate, translator
}

func Token(t *testing.T, conf *core.Config, subject string, roles ...string) string {
	claims, err := auth.NewClaims(conf, subject, "Test "+subject, subject+"@school.test", roles)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	token, err := auth.GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return token
}

// CSV encodes rows the way a spreadsheet export would.
func CSV(t *testing.T, rows ...[]string) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("CSV() failed: %v", err)
	}
	return buf.Bytes()
}

// SeedStudents stores minimal students keyed by their school ID (rollNumber = "R-" + ID) and returns their canonical IDs.
func SeedStudents(t *testing.T, store core.DocumentStore, studentIDs ...string) []string {
	docs := make([]core.Document, 0, len(studentIDs))
	for _, sid := range studentIDs {
		docs = append(docs, core.Document{"studentId": sid, "rollNumber": "R-" + sid})
	}
	ids, err := store.InsertBatch(context.Background(), student.Collection, docs)
	if err != nil {
		t.Fatalf("SeedStudents() failed: %v", err)
	}
	return ids
}

// NopLogger discards everything.
type NopLogger struct{}

var _ core.Logger = NopLogger{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}
