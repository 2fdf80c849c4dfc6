// Package domain declares the clinic entities shared between storage,
// cache, and the conversation flows.
package domain

import "time"

// PrivilegeLevel separates admins allowed to manage other admins and view
// statistics from admins limited to doctor management.
type PrivilegeLevel string

const (
	PrivilegeHigh PrivilegeLevel = "high"
	PrivilegeLow  PrivilegeLevel = "low"
)

// ConsultationType distinguishes paid online consultations from offline visits.
type ConsultationType string

const (
	ConsultationOnline  ConsultationType = "online"
	ConsultationOffline ConsultationType = "offline"
)

// CommunicationType is how the client prefers to be contacted about a
// booking.
type CommunicationType string

const (
	CommunicationCall CommunicationType = "call"
	CommunicationChat CommunicationType = "chat"
)

// ScienceDegree values offered during doctor creation.
const (
	DegreePhD    = "Доктор мед. наук"
	DegreePrePhD = "Кандидат мед. наук"
)

// Qualification category values offered during doctor creation.
const (
	CategoryHighest = "Высшая"
	CategoryFirst   = "Первая"
	CategorySecond  = "Вторая"
)

// ScienceDegrees lists the selectable degree values in display order.
func ScienceDegrees() []string {
	return []string{DegreePhD, DegreePrePhD}
}

// QualCategories lists the selectable category values in display order.
func QualCategories() []string {
	return []string{CategoryHighest, CategoryFirst, CategorySecond}
}

// Admin is a staff account identified by its Telegram user id.
type Admin struct {
	ID        int64          `db:"id"`
	TgUID     int64          `db:"tg_uid"`
	Name      string         `db:"name"`
	Privilege PrivilegeLevel `db:"privilege"`
	CreatedAt time.Time      `db:"created_at"`
}

// SpecialityPrice pairs one speciality title with the consultation price a
// doctor charges for it. Order matters: prices are collected positionally.
type SpecialityPrice struct {
	Title string
	Price int
}

// Doctor is a clinic doctor with one or more priced specialities.
type Doctor struct {
	ID            int64   `db:"id"`
	Name          string  `db:"name"`
	Photo         string  `db:"photo"`
	Description   string  `db:"description"`
	Experience    *int    `db:"experience"`
	ScienceDegree *string `db:"science_degree"`
	QualCategory  *string `db:"qual_category"`

	Specialities []SpecialityPrice
}

// Appointment is a booked consultation.
type Appointment struct {
	TgUID            int64
	Username         string
	FullName         string
	Phone            string
	ConsultationType ConsultationType
	Communication    CommunicationType
	UserRequest      string
	DoctorID         int64
	PreferableDT     string
	ConferenceLink   string
}

// Callback is a request to be called back by the clinic.
type Callback struct {
	TgUID    int64
	Username string
	FullName string
	Phone    string
}

// Feedback is a free-text review left by a client.
type Feedback struct {
	TgUID    int64
	Username string
	Message  string
}
