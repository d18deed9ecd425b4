package student

import (
	"time"

	"github.com/volatiletech/null/v8"
)

const Collection = "students"

var Genders = []string{"male", "female", "other"}

type (
	Address struct {
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zipCode"`
		Country string `json:"country"`
	}

	ParentInfo struct {
		FatherName    string      `json:"fatherName"`
		MotherName    string      `json:"motherName"`
		GuardianName  null.String `json:"guardianName"`
		ContactNumber string      `json:"contactNumber"`
		Email         null.String `json:"email"`
	}

	EmergencyContact struct {
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
		Phone        string `json:"phone"`
	}

	Student struct {
		ID                string           `json:"id,omitempty"`
		StudentID         string           `json:"studentId"`
		FirstName         string           `json:"firstName"`
		LastName          string           `json:"lastName"`
		Email             null.String      `json:"email"`
		Phone             null.String      `json:"phone"`
		DateOfBirth       time.Time        `json:"dateOfBirth"`
		Gender            string           `json:"gender"`
		Address           Address          `json:"address"`
		ParentInfo        ParentInfo       `json:"parentInfo"`
		Class             string           `json:"class"`
		Section           string           `json:"section"`
		RollNumber        string           `json:"rollNumber"`
		AdmissionDate     time.Time        `json:"admissionDate"`
		EmergencyContact  EmergencyContact `json:"emergencyContact"`
		ProfileImage      null.String      `json:"profileImage"`
		BloodGroup        null.String      `json:"bloodGroup"`
		MedicalConditions []string         `json:"medicalConditions"`
		IsActive          bool             `json:"isActive"`
		CreatedBy         string           `json:"createdBy"`
		CreatedAt         time.Time        `json:"createdAt"`
		UpdatedAt         time.Time        `json:"updatedAt"`
	}
)

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
