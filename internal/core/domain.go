package core

import (
	"strings"
	"time"
)

const (
	// DefaultRole is assigned to registrations that leave the role blank.
	DefaultRole = "USER"

	maxNameLen   = 100
	maxTypeLen   = 50
	maxAmountLen = 20
)

type (
	// Date is a day-granularity date serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	// User is a credential record. Password holds the bcrypt hash once the
	// record has been through registration; it is cleared before a user is
	// echoed back to a client.
	User struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		Password string `json:"password,omitempty"`
		Role     string `json:"role,omitempty"`
	}

	// Expense is a single expense entry owned by a user. The amount is kept
	// as a string, matching the wire format.
	Expense struct {
		ID            int64  `json:"id"`
		Name          string `json:"expense"`
		Type          string `json:"expenseType"`
		Amount        string `json:"expenseAmount"`
		PaymentMethod string `json:"paymentMethod,omitempty"`
		Date          Date   `json:"date"`
		UserID        int64  `json:"-"`
	}
)

const dateLayout = "2006-01-02"

func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current date truncated to day granularity.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		d.Time = time.Time{}
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

// ParseYearMonth parses a YYYY-MM token and returns the inclusive first and
// last day of that calendar month.
func ParseYearMonth(s string) (start, end Date, err error) {
	t, perr := time.Parse("2006-01", strings.TrimSpace(s))
	if perr != nil {
		return Date{}, Date{}, ErrInvalidYearMonth
	}
	start = NewDate(t.Year(), int(t.Month()), 1)
	end = Date{Time: start.AddDate(0, 1, -1)}
	return start, end, nil
}

// Validate checks every field constraint and reports all violations at once,
// keyed by the wire field name.
func (e Expense) Validate() error {
	v := NewValidationError()
	if strings.TrimSpace(e.Name) == "" {
		v.Add("expense", "Expense name is required")
	} else if len(e.Name) > maxNameLen {
		v.Add("expense", "Expense name must be at most 100 characters")
	}
	if strings.TrimSpace(e.Type) == "" {
		v.Add("expenseType", "Expense type is required")
	} else if len(e.Type) > maxTypeLen {
		v.Add("expenseType", "Expense type must be at most 50 characters")
	}
	if strings.TrimSpace(e.Amount) == "" {
		v.Add("expenseAmount", "Expense amount is required")
	} else if len(e.Amount) > maxAmountLen {
		v.Add("expenseAmount", "Expense amount must be at most 20 characters")
	}
	if v.Empty() {
		return nil
	}
	return v
}

// Validate checks the registration constraints on a candidate user.
func (u User) Validate() error {
	v := NewValidationError()
	if strings.TrimSpace(u.Username) == "" {
		v.Add("username", "Username is required")
	}
	if strings.TrimSpace(u.Password) == "" {
		v.Add("password", "Password is required")
	}
	if v.Empty() {
		return nil
	}
	return v
}

// OwnedBy reports whether the expense belongs to the given user. A zero
// owner on either side fails the check.
func (e Expense) OwnedBy(u User) bool {
	return e.UserID != 0 && u.ID != 0 && e.UserID == u.ID
}
