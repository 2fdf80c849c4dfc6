package fsm

// Session is the live state of one user's in-progress flow. At most one
// session exists per user; starting another flow supersedes it.
//
// Scratch data is typed per flow: exactly one of the pointer fields below is
// non-nil, matching Flow. The whole session is JSON round-trippable so it can
// survive a process restart in Redis.
type Session struct {
	UserID int64 `json:"user_id"`
	Flow   Kind  `json:"flow"`
	State  State `json:"state"`

	// LastMsgID is the bot message edited in place as the flow advances.
	LastMsgID int `json:"last_msg_id,omitempty"`
	// MessagesToDelete collects intermediate message ids removed on advance.
	MessagesToDelete []int `json:"messages_to_delete,omitempty"`

	Doctor   *DoctorScratch   `json:"doctor,omitempty"`
	Admin    *AdminScratch    `json:"admin,omitempty"`
	Booking  *BookingScratch  `json:"booking,omitempty"`
	Callback *CallbackScratch `json:"callback,omitempty"`
	Feedback *FeedbackScratch `json:"feedback,omitempty"`
}

// DoctorScratch accumulates answers for doctor create/update/delete flows.
type DoctorScratch struct {
	// Pool is the speciality catalog indexed positionally; callback payloads
	// reference entries by index to stay within Telegram's 64-byte limit.
	Pool []string `json:"pool,omitempty"`
	// Selected preserves insertion order; toggling removes by value.
	Selected []string `json:"selected,omitempty"`
	// NoPrice is the work queue of selected specialities still missing a
	// price. Prices align with Selected index-for-index once it drains.
	NoPrice []string `json:"no_price,omitempty"`
	Prices  []int    `json:"prices,omitempty"`

	Name          string  `json:"name,omitempty"`
	Photo         string  `json:"photo,omitempty"`
	Description   string  `json:"description,omitempty"`
	Experience    *int    `json:"experience,omitempty"`
	ScienceDegree *string `json:"science_degree,omitempty"`
	QualCategory  *string `json:"qual_category,omitempty"`

	// Update/delete flows.
	DoctorID   int64    `json:"doctor_id,omitempty"`
	DoctorName string   `json:"doctor_name,omitempty"`
	Existing   []string `json:"existing,omitempty"`
	Action     string   `json:"action,omitempty"`
}

// AdminScratch accumulates answers for admin create/delete flows.
type AdminScratch struct {
	UID       int64  `json:"uid,omitempty"`
	Name      string `json:"name,omitempty"`
	Privilege string `json:"privilege,omitempty"`
}

// DoctorRef is a compact doctor reference used in paginated selection.
type DoctorRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// BookingScratch accumulates answers for the appointment flow.
type BookingScratch struct {
	ConsultationType string `json:"consultation_type,omitempty"`

	// Speciality selection pagination.
	Pool  []string `json:"pool,omitempty"`
	Page  int      `json:"page,omitempty"`
	Total int      `json:"total,omitempty"`

	Speciality string      `json:"speciality,omitempty"`
	Doctors    []DoctorRef `json:"doctors,omitempty"`
	DoctorID   int64       `json:"doctor_id,omitempty"`
	DoctorName string      `json:"doctor_name,omitempty"`
	Price      int         `json:"price,omitempty"`

	Request       string `json:"request,omitempty"`
	PreferableDT  string `json:"preferable_dt,omitempty"`
	Communication string `json:"communication,omitempty"`
	Phone         string `json:"phone,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	Username      string `json:"username,omitempty"`
}

// CallbackScratch accumulates answers for the callback-request flow.
type CallbackScratch struct {
	FullName string `json:"full_name,omitempty"`
	Phone    string `json:"phone,omitempty"`
}

// FeedbackScratch holds the review text pending confirmation.
type FeedbackScratch struct {
	Message string `json:"message,omitempty"`
}

// NewSession starts a fresh session for the given flow positioned at entry.
func NewSession(userID int64, flow Kind, entry State) *Session {
	return &Session{UserID: userID, Flow: flow, State: entry}
}

// RememberMessage appends a message id to the deletion list.
func (s *Session) RememberMessage(id int) {
	s.MessagesToDelete = append(s.MessagesToDelete, id)
}

// DrainMessages returns and clears the pending deletion list.
func (s *Session) DrainMessages() []int {
	out := s.MessagesToDelete
	s.MessagesToDelete = nil
	return out
}
