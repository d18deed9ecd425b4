package teacher

import (
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/importing"
)

var (
	columns = []string{
		"teacherId", "firstName", "lastName", "email", "phone", "dateOfBirth", "gender",
		"street", "city", "state", "zipCode", "country",
		"qualifications", "subjects", "experience", "joiningDate", "salary",
		"emergencyContactName", "emergencyContactRelationship", "emergencyContactPhone",
		"bankAccountNumber", "bankName", "ifscCode", "profileImage", "bloodGroup",
	}

	required = []string{
		"teacherId", "firstName", "lastName", "email", "phone", "dateOfBirth", "gender",
		"street", "city", "state", "zipCode", "country",
		"qualifications", "subjects", "experience", "joiningDate", "salary",
		"emergencyContactName", "emergencyContactRelationship", "emergencyContactPhone",
	}

	bankColumns = []string{"bankAccountNumber", "bankName", "ifscCode"}

	examples = [][]string{
		{
			"TCH001", "Alice", "Johnson", "alice.johnson@school.com", "+1234567800", "1985-04-12", "female",
			"10 School Rd", "Springfield", "IL", "62701", "USA",
			"M.Sc Mathematics, B.Ed", "Mathematics, Physics", "8", "2016-07-01", "55000",
			"Tom Johnson", "Spouse", "+1234567801",
			"1234567890", "First Bank", "FBIN0001234", "", "O+",
		},
		{
			"TCH002", "Brian", "Lee", "brian.lee@school.com", "+1234567802", "09/30/1990", "male",
			"22 Elm St", "Springfield", "IL", "62702", "USA",
			"B.A English", "English", "0", "08/20/2024", "42000.50",
			"Mary Lee", "Mother", "+1234567803",
			"", "", "", "", "",
		},
		// rejected: bank details are partial
		{
			"TCH003", "Carla", "Diaz", "carla.diaz@school.com", "+1234567804", "1979-01-05", "female",
			"5 Oak Ave", "Springfield", "IL", "62703", "USA",
			"Ph.D Chemistry", "Chemistry", "15", "2010-01-10", "61000",
			"Luis Diaz", "Brother", "+1234567805",
			"9876543210", "", "", "", "",
		},
	}
)

func parse(r *importing.RowReader) Teacher {
	t := Teacher{
		TeacherID:   r.String("teacherId"),
		FirstName:   r.String("firstName"),
		LastName:    r.String("lastName"),
		Email:       r.Email("email").String,
		Phone:       r.String("phone"),
		DateOfBirth: r.Date("dateOfBirth"),
		Gender:      r.Enum("gender", Genders...),
		Address: Address{
			Street:  r.String("street"),
			City:    r.String("city"),
			State:   r.String("state"),
			ZipCode: r.String("zipCode"),
			Country: r.String("country"),
		},
		Qualifications: r.List("qualifications", true),
		Subjects:       r.List("subjects", true),
		Experience:     r.Int("experience"),
		JoiningDate:    r.Date("joiningDate"),
		Salary:         r.Decimal("salary"),
		EmergencyContact: EmergencyContact{
			Name:         r.String("emergencyContactName"),
			Relationship: r.String("emergencyContactRelationship"),
			Phone:        r.String("emergencyContactPhone"),
		},
		ProfileImage: r.Optional("profileImage"),
		BloodGroup:   r.Optional("bloodGroup"),
	}
	t.BankDetails = parseBankDetails(r)
	return t
}

// parseBankDetails requires either all bank columns or none of them.
func parseBankDetails(r *importing.RowReader) *BankDetails {
	bank := BankDetails{
		AccountNumber: r.String("bankAccountNumber"),
		BankName:      r.String("bankName"),
		IFSCCode:      r.String("ifscCode"),
	}
	values := []string{bank.AccountNumber, bank.BankName, bank.IFSCCode}

	var set int
	for _, v := range values {
		if v != "" {
			set++
		}
	}
	switch set {
	case 0:
		return nil
	case len(values):
		return &bank
	}
	for i, v := range values {
		if v == "" {
			r.Fail(bankColumns[i], "Incomplete bank details: missing %s", bankColumns[i])
			break
		}
	}
	return nil
}

func Descriptor() importing.Descriptor[Teacher] {
	return importing.Descriptor[Teacher]{
		Kind:     Collection,
		Columns:  columns,
		Required: required,
		Parse:    parse,
		Keys: []importing.UniqueKey[Teacher]{{
			Key: func(t Teacher) importing.Key {
				return importing.NewKey(t.TeacherID)
			},
			Filter: func(t Teacher) core.Filter {
				return core.Where(core.Eq{Field: "teacherId", Value: t.TeacherID})
			},
			Message: func(t Teacher) string {
				return "Teacher with ID " + t.TeacherID + " already exists"
			},
		}, {
			// emails are lower-cased by the row reader
			Key: func(t Teacher) importing.Key {
				return importing.NewKey(t.Email)
			},
			Filter: func(t Teacher) core.Filter {
				return core.Where(core.Eq{Field: "email", Value: t.Email})
			},
			Message: func(t Teacher) string {
				return "Teacher with email " + t.Email + " already exists"
			},
		}},
		Finalize: func(t *Teacher, meta importing.Meta) {
			t.IsActive = true
			t.CreatedBy = meta.Actor
			t.CreatedAt = meta.Now
			t.UpdatedAt = meta.Now
		},
		Examples: examples,
	}
}

func NewImporter(store core.DocumentStore, validate *validator.Validate) importing.Importer {
	return importing.NewPipeline(Descriptor(), store, validate)
}
