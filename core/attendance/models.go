package attendance

import (
	"time"

	"github.com/volatiletech/null/v8"
)

const Collection = "attendance"

var Statuses = []string{"present", "absent", "late", "excused"}

type Attendance struct {
	ID           string      `json:"id,omitempty"`
	StudentID    string      `json:"studentId"` // canonical student identifier
	Date         time.Time   `json:"date"`
	Status       string      `json:"status"`
	CheckInTime  null.Time   `json:"checkInTime"`
	CheckOutTime null.Time   `json:"checkOutTime"`
	Notes        null.String `json:"notes"`
	MarkedBy     string      `json:"markedBy"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}
