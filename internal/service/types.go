package service

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vehiclemodels/internal/core"
)

// Store errors
var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrTechnicianNotFound  = errors.New("technician not found")
	ErrTechnicianInUse     = errors.New("technician has appointments")
	ErrAppointmentNotFound = errors.New("service appointment not found")
)

// Technician is a service department employee.
type Technician struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	EmployeeNumber int64  `json:"employee_number"`
}

// Appointment is a booked service visit. VIP is set when the VIN belongs to
// an automobile sold from the inventory.
type Appointment struct {
	ID         int64      `json:"id"`
	VIN        string     `json:"VIN"`
	Owner      string     `json:"owner"`
	DateTime   time.Time  `json:"date_time"`
	Reason     string     `json:"reason"`
	Finished   bool       `json:"finished"`
	VIP        bool       `json:"vip"`
	Technician Technician `json:"technician"`
}

// AutomobileVO is the service department's copy of an inventory VIN.
type AutomobileVO struct {
	ID  int64  `json:"id"`
	VIN string `json:"VIN"`
}

// FlexInt is an integer that also accepts a quoted number, as form
// submissions send select values as strings.
type FlexInt int64

// UnmarshalJSON accepts 7 and "7".
func (n *FlexInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: %s is not an integer", ErrInvalidInput, data)
	}
	*n = FlexInt(v)
	return nil
}

// TechnicianInput is the body of a technician create request.
type TechnicianInput struct {
	Name           string  `json:"name"`
	EmployeeNumber FlexInt `json:"employee_number"`
}

// Validate trims the name and checks both fields are filled out.
func (in *TechnicianInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len(in.Name) > core.TechnicianNameMaxLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidInput, core.TechnicianNameMaxLength)
	}
	if in.EmployeeNumber <= 0 {
		return fmt.Errorf("%w: employee_number must be positive", ErrInvalidInput)
	}
	return nil
}

// AppointmentInput is the body of an appointment create request. Technician
// holds the technician id.
type AppointmentInput struct {
	VIN        string  `json:"VIN"`
	Owner      string  `json:"owner"`
	DateTime   string  `json:"date_time"`
	Reason     string  `json:"reason"`
	Technician FlexInt `json:"technician"`
}

// Validate normalizes the input and returns the parsed appointment time.
func (in *AppointmentInput) Validate() (time.Time, error) {
	in.VIN = strings.TrimSpace(in.VIN)
	in.Owner = strings.TrimSpace(in.Owner)
	in.Reason = strings.TrimSpace(in.Reason)

	if err := validateVIN(in.VIN); err != nil {
		return time.Time{}, err
	}
	if err := validateOwner(in.Owner); err != nil {
		return time.Time{}, err
	}
	if in.Reason == "" {
		return time.Time{}, fmt.Errorf("%w: reason is required", ErrInvalidInput)
	}
	if in.Technician <= 0 {
		return time.Time{}, fmt.Errorf("%w: technician is required", ErrInvalidInput)
	}
	return ParseDateTime(in.DateTime)
}

// AppointmentPatch changes the fields that are set. It is mostly used to
// mark an appointment finished.
type AppointmentPatch struct {
	VIN        *string  `json:"VIN"`
	Owner      *string  `json:"owner"`
	DateTime   *string  `json:"date_time"`
	Reason     *string  `json:"reason"`
	Technician *FlexInt `json:"technician"`
	Finished   *bool    `json:"finished"`
}

func validateVIN(vin string) error {
	if vin == "" {
		return fmt.Errorf("%w: VIN is required", ErrInvalidInput)
	}
	if len(vin) > 17 {
		return fmt.Errorf("%w: VIN exceeds 17 characters", ErrInvalidInput)
	}
	return nil
}

func validateOwner(owner string) error {
	if owner == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if len(owner) > core.AppointmentOwnerMaxLength {
		return fmt.Errorf("%w: owner exceeds %d characters", ErrInvalidInput, core.AppointmentOwnerMaxLength)
	}
	return nil
}

// ParseDateTime accepts RFC 3339 timestamps and the minute-precision form
// sent by datetime-local inputs, which is read as UTC.
func ParseDateTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("%w: date_time is required", ErrInvalidInput)
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(core.AppointmentDateTimeLayout, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("%w: date_time %q is not RFC 3339 or %s", ErrInvalidInput, raw, core.AppointmentDateTimeLayout)
}
