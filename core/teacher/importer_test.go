package teacher

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core/importing"
	"github.com/trezcool/schoolhub/storage/database/dummy"
)

const header = "teacherId,firstName,lastName,email,phone,dateOfBirth,gender,street,city,state,zipCode,country," +
	"qualifications,subjects,experience,joiningDate,salary,emergencyContactName,emergencyContactRelationship," +
	"emergencyContactPhone,bankAccountNumber,bankName,ifscCode,profileImage,bloodGroup"

func row(id, email, quals, experience, salary, bank string) string {
	return id + ",Ann,Lee," + email + ",+100,1980-01-01,female,1 Main St,Springfield,IL,62701,USA," +
		quals + ",Math," + experience + ",2015-09-01," + salary + ",Bob Lee,Spouse,+101," + bank + ",,"
}

func TestImporter_Import(t *testing.T) {
	csv := strings.Join([]string{
		header,
		row("TCH001", "ann@school.test", `"M.Sc, B.Ed"`, "7", "50000", "123,First Bank,FB0001"),
		row("TCH002", "ann2@school.test", "B.Sc", "0", "1.5", ",,"),
		row("TCH003", "ann3@school.test", "B.Sc", "-2", "100", ",,"),
		row("TCH004", "ann4@school.test", "B.Sc", "2.5", "100", ",,"),
		row("TCH005", "ann5@school.test", "B.Sc", "2", "0", ",,"),
		row("TCH006", "ann6@school.test", "B.Sc", "2", "100", "123,,"),
		row("TCH007", "ann7@school.test", `" , "`, "2", "100", ",,"),
		row("TCH001", "other@school.test", "B.Sc", "2", "100", ",,"),
	}, "\n")

	db := dummydb.Open()
	imp := NewImporter(db, validator.New())
	out, err := imp.Import(context.Background(), strings.NewReader(csv), importing.Meta{Actor: "staff-1", Now: time.Now()})
	require.NoError(t, err)

	assert.Equal(t, 8, out.TotalRows)
	assert.Equal(t, 2, out.SuccessfulUploads)
	assert.Equal(t, 1, out.Duplicates)
	assert.Equal(t, 5, out.Errors)
	assert.Equal(t, []string{
		"Row 3: Invalid experience '-2'. Must be a non-negative integer",
		"Row 4: Invalid experience '2.5'. Must be a non-negative integer",
		"Row 5: Invalid salary '0'. Must be a positive number",
		"Row 6: Incomplete bank details: missing bankName",
		"Row 7: qualifications must contain at least one entry",
	}, out.ValidationErrorMessages)
	assert.Equal(t, []string{"Row 8: Teacher with ID TCH001 already exists (same as row 1)"}, out.DuplicateMessages)

	ann := out.UploadedRecords[0].(Teacher)
	assert.Equal(t, []string{"M.Sc", "B.Ed"}, ann.Qualifications)
	assert.Equal(t, 7, ann.Experience)
	assert.True(t, decimal.NewFromInt(50000).Equal(ann.Salary))
	require.NotNil(t, ann.BankDetails)
	assert.Equal(t, BankDetails{AccountNumber: "123", BankName: "First Bank", IFSCCode: "FB0001"}, *ann.BankDetails)

	second := out.UploadedRecords[1].(Teacher)
	assert.Nil(t, second.BankDetails)
	assert.Equal(t, 0, second.Experience)
}

func TestImporter_Import_duplicateEmail(t *testing.T) {
	db := dummydb.Open()
	imp := NewImporter(db, validator.New())
	meta := importing.Meta{Actor: "staff-1", Now: time.Now()}

	csv := strings.Join([]string{
		header,
		row("TCH001", "ann@school.test", "B.Sc", "2", "100", ",,"),
		row("TCH002", "ANN@school.test", "B.Sc", "2", "100", ",,"),
	}, "\n")
	out, err := imp.Import(context.Background(), strings.NewReader(csv), meta)
	require.NoError(t, err)
	assert.Equal(t, 1, out.SuccessfulUploads)
	assert.Equal(t, []string{"Row 2: Teacher with email ann@school.test already exists (same as row 1)"}, out.DuplicateMessages)

	// a new teacher ID does not make a stored email available again
	csv = strings.Join([]string{header, row("TCH003", "Ann@School.test", "B.Sc", "2", "100", ",,")}, "\n")
	out, err = imp.Import(context.Background(), strings.NewReader(csv), meta)
	require.NoError(t, err)
	assert.Equal(t, 0, out.SuccessfulUploads)
	assert.Equal(t, []string{"Row 1: Teacher with email ann@school.test already exists"}, out.DuplicateMessages)
	assert.Equal(t, 1, db.Len(Collection))
}

func TestImporter_Template(t *testing.T) {
	imp := NewImporter(dummydb.Open(), validator.New())
	tmpl := imp.Template()
	assert.True(t, strings.HasPrefix(string(tmpl), header+"\n"))

	out, err := imp.Import(context.Background(), bytes.NewReader(tmpl), importing.Meta{Now: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 2, out.SuccessfulUploads)
	assert.Equal(t, []string{"Row 3: Incomplete bank details: missing bankName"}, out.ValidationErrorMessages)
}
