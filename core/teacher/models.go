package teacher

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"
)

const Collection = "teachers"

var Genders = []string{"male", "female", "other"}

type (
	Address struct {
		Street  string `json:"street"`
		City    string `json:"city"`
		State   string `json:"state"`
		ZipCode string `json:"zipCode"`
		Country string `json:"country"`
	}

	EmergencyContact struct {
		Name         string `json:"name"`
		Relationship string `json:"relationship"`
		Phone        string `json:"phone"`
	}

	BankDetails struct {
		AccountNumber string `json:"accountNumber"`
		BankName      string `json:"bankName"`
		IFSCCode      string `json:"ifscCode"`
	}

	Teacher struct {
		ID               string           `json:"id,omitempty"`
		TeacherID        string           `json:"teacherId"`
		FirstName        string           `json:"firstName"`
		LastName         string           `json:"lastName"`
		Email            string           `json:"email"`
		Phone            string           `json:"phone"`
		DateOfBirth      time.Time        `json:"dateOfBirth"`
		Gender           string           `json:"gender"`
		Address          Address          `json:"address"`
		Qualifications   []string         `json:"qualifications"`
		Subjects         []string         `json:"subjects"`
		Experience       int              `json:"experience"` // years
		JoiningDate      time.Time        `json:"joiningDate"`
		Salary           decimal.Decimal  `json:"salary"`
		ProfileImage     null.String      `json:"profileImage"`
		BloodGroup       null.String      `json:"bloodGroup"`
		EmergencyContact EmergencyContact `json:"emergencyContact"`
		BankDetails      *BankDetails     `json:"bankDetails,omitempty"`
		IsActive         bool             `json:"isActive"`
		CreatedBy        string           `json:"createdBy"`
		CreatedAt        time.Time        `json:"createdAt"`
		UpdatedAt        time.Time        `json:"updatedAt"`
	}
)
