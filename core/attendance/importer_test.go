package attendance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/importing"
	"github.com/trezcool/schoolhub/core/student"
	"github.com/trezcool/schoolhub/storage/database/dummy"
)

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	studentIDs, err := db.InsertBatch(ctx, student.Collection, []core.Document{
		{"studentId": "STU001", "rollNumber": "001"},
		{"studentId": "STU002", "rollNumber": "002"},
	})
	require.NoError(t, err)
	imp := NewImporter(db, validator.New())

	csv := strings.Join([]string{
		"studentId,date,status,checkInTime,checkOutTime,notes",
		"STU001,2024-01-15,Present,08:00,15:00,",           // 1
		"STU002,01/15/2024,late,09:10,,Bus delay",          // 2
		"STU001,2024-01-15,absent,,,",                      // 3 same student and day as row 1
		"STU002,2024-01-16,present,15:00,08:00,",           // 4 check-out before check-in
		"STU002,2024-01-17,present,2024-01-18T08:00:00Z,,", // 5 another day
		"STU002,2024-01-17,sleeping,,,",                    // 6
		"STU003,2024-01-17,present,,,",                     // 7 unknown student
	}, "\n")
	meta := importing.Meta{Actor: "teacher-9", Now: time.Now()}

	out, err := imp.Import(ctx, strings.NewReader(csv), meta)
	require.NoError(t, err)
	assert.Equal(t, 7, out.TotalRows)
	assert.Equal(t, 2, out.SuccessfulUploads)
	assert.Equal(t, 1, out.Duplicates)
	assert.Equal(t, 1, out.InvalidReferences)
	assert.Equal(t, 3, out.Errors)
	assert.Equal(t, []string{
		"Row 4: checkOutTime must be after checkInTime",
		"Row 5: checkInTime must be on 2024-01-17",
		"Row 6: Invalid status 'sleeping'. Must be one of: present, absent, late, excused",
	}, out.ValidationErrorMessages)
	assert.Equal(t, []string{"Row 3: Attendance already marked for this student on 2024-01-15 (same as row 1)"}, out.DuplicateMessages)
	assert.Equal(t, []string{"Row 7: Student not found: STU003"}, out.InvalidReferenceMessages)

	first := out.UploadedRecords[0].(Attendance)
	assert.Equal(t, studentIDs[0], first.StudentID)
	assert.Equal(t, "present", first.Status)
	assert.Equal(t, "teacher-9", first.MarkedBy)
	assert.True(t, time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC).Equal(first.CheckInTime.Time))
	assert.True(t, time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC).Equal(first.CheckOutTime.Time))
	second := out.UploadedRecords[1].(Attendance)
	assert.False(t, second.CheckOutTime.Valid)
	assert.Equal(t, "Bus delay", second.Notes.String)

	// importing the same sheet again changes nothing
	again, err := imp.Import(ctx, strings.NewReader(csv), meta)
	require.NoError(t, err)
	assert.Equal(t, 0, again.SuccessfulUploads)
	assert.Equal(t, 3, again.Duplicates)
	assert.Equal(t, 2, db.Len(Collection))
}

func TestImporter_Template(t *testing.T) {
	ctx := context.Background()
	db := dummydb.Open()
	_, err := db.InsertBatch(ctx, student.Collection, []core.Document{
		{"studentId": "STU001"}, {"studentId": "STU002"}, {"studentId": "STU003"},
	})
	require.NoError(t, err)
	imp := NewImporter(db, validator.New())

	out, err := imp.Import(ctx, strings.NewReader(string(imp.Template())), importing.Meta{Now: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, 4, out.TotalRows)
	assert.Equal(t, 3, out.SuccessfulUploads)
	assert.Equal(t, []string{"Row 4: checkOutTime must be after checkInTime"}, out.ValidationErrorMessages)
}
