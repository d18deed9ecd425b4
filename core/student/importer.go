package student

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolhub/core"
	"github.com/trezcool/schoolhub/core/importing"
)

var (
	columns = []string{
		"studentId", "firstName", "lastName", "email", "phone", "dateOfBirth", "gender",
		"street", "city", "state", "zipCode", "country",
		"fatherName", "motherName", "guardianName", "parentContactNumber", "parentEmail",
		"class", "section", "rollNumber", "admissionDate",
		"emergencyContactName", "emergencyContactRelationship", "emergencyContactPhone",
		"profileImage", "bloodGroup", "medicalConditions",
	}

	required = []string{
		"studentId", "firstName", "lastName", "dateOfBirth", "gender",
		"street", "city", "state", "zipCode", "country",
		"fatherName", "motherName", "parentContactNumber",
		"class", "section", "rollNumber", "admissionDate",
		"emergencyContactName", "emergencyContactRelationship", "emergencyContactPhone",
	}

	examples = [][]string{
		{
			"STU001", "John", "Doe", "john.doe@student.com", "+1234567890", "2010-06-15", "male",
			"123 Main St", "Springfield", "IL", "62701", "USA",
			"Robert Doe", "Jane Doe", "", "+1234567891", "parent@example.com",
			"Grade 5", "A", "001", "2023-08-15",
			"Jane Doe", "Mother", "+1234567892",
			"", "A+", "",
		},
		{
			"STU002", "Jane", "Smith", "", "", "03/22/2009", "female",
			"456 Oak Ave", "Springfield", "IL", "62702", "USA",
			"Michael Smith", "Sarah Smith", "Anna Smith", "+1234567894", "",
			"Grade 6", "B", "002", "08/15/2023",
			"Michael Smith", "Father", "+1234567895",
			"", "B+", "Allergic to nuts, Asthma",
		},
		// rejected: invalid email
		{
			"STU003", "Invalid", "Email", "invalid-email", "+1234567896", "2011-01-10", "male",
			"789 Pine Rd", "Springfield", "IL", "62703", "USA",
			"David Email", "Mary Email", "", "+1234567897", "",
			"Grade 4", "C", "003", "2023-08-15",
			"David Email", "Father", "+1234567898",
			"", "O+", "",
		},
	}
)

// medicalConditions drops placeholder entries such as "None".
func medicalConditions(list []string) []string {
	conds := make([]string, 0, len(list))
	for _, c := range list {
		switch strings.ToLower(c) {
		case "none", "n/a", "-":
		default:
			conds = append(conds, c)
		}
	}
	return conds
}

func parse(r *importing.RowReader) Student {
	return Student{
		StudentID:   r.String("studentId"),
		FirstName:   r.String("firstName"),
		LastName:    r.String("lastName"),
		Email:       r.Email("email"),
		Phone:       r.Optional("phone"),
		DateOfBirth: r.Date("dateOfBirth"),
		Gender:      r.Enum("gender", Genders...),
		Address: Address{
			Street:  r.String("street"),
			City:    r.String("city"),
			State:   r.String("state"),
			ZipCode: r.String("zipCode"),
			Country: r.String("country"),
		},
		ParentInfo: ParentInfo{
			FatherName:    r.String("fatherName"),
			MotherName:    r.String("motherName"),
			GuardianName:  r.Optional("guardianName"),
			ContactNumber: r.String("parentContactNumber"),
			Email:         r.Email("parentEmail"),
		},
		Class:         r.String("class"),
		Section:       r.String("section"),
		RollNumber:    r.String("rollNumber"),
		AdmissionDate: r.Date("admissionDate"),
		EmergencyContact: EmergencyContact{
			Name:         r.String("emergencyContactName"),
			Relationship: r.String("emergencyContactRelationship"),
			Phone:        r.String("emergencyContactPhone"),
		},
		ProfileImage:      r.Optional("profileImage"),
		BloodGroup:        r.Optional("bloodGroup"),
		MedicalConditions: medicalConditions(r.List("medicalConditions", false)),
	}
}

func Descriptor() importing.Descriptor[Student] {
	return importing.Descriptor[Student]{
		Kind:     Collection,
		Columns:  columns,
		Required: required,
		Parse:    parse,
		Keys: []importing.UniqueKey[Student]{{
			Key: func(s Student) importing.Key {
				return importing.NewKey(s.StudentID)
			},
			Filter: func(s Student) core.Filter {
				return core.Where(core.Eq{Field: "studentId", Value: s.StudentID})
			},
			Message: func(s Student) string {
				return "Student with ID " + s.StudentID + " already exists"
			},
		}, {
			Key: func(s Student) importing.Key {
				return importing.NewKey(s.Class, s.Section, s.RollNumber)
			},
			Filter: func(s Student) core.Filter {
				return core.Where(
					core.Eq{Field: "class", Value: s.Class},
					core.Eq{Field: "section", Value: s.Section},
					core.Eq{Field: "rollNumber", Value: s.RollNumber},
				)
			},
			Message: func(s Student) string {
				return "Roll number " + s.RollNumber + " already exists in class " + s.Class + " section " + s.Section
			},
		}},
		Finalize: func(s *Student, meta importing.Meta) {
			s.IsActive = true
			s.CreatedBy = meta.Actor
			s.CreatedAt = meta.Now
			s.UpdatedAt = meta.Now
		},
		Examples: examples,
	}
}

func NewImporter(store core.DocumentStore, validate *validator.Validate) importing.Importer {
	return importing.NewPipeline(Descriptor(), store, validate)
}
