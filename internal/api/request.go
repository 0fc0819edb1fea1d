package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"shareit/internal/domain"
	"shareit/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/julienschmidt/httprouter"
)

const maxBodyBytes = 1 << 20

// Accepted timestamp forms. Values without a zone are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

type createBookingRequest struct {
	ItemID int64     `json:"itemId" validate:"required,gt=0"`
	Start  time.Time `json:"start" validate:"required,notpast"`
	End    time.Time `json:"end" validate:"required,notpast"`
}

func (r *createBookingRequest) UnmarshalJSON(data []byte) error {
	var raw struct {
		ItemID int64  `json:"itemId"`
		Start  string `json:"start"`
		End    string `json:"end"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	start, err := parseTimestamp(raw.Start)
	if err != nil {
		return fmt.Errorf("start: %w", err)
	}
	end, err := parseTimestamp(raw.End)
	if err != nil {
		return fmt.Errorf("end: %w", err)
	}

	r.ItemID, r.Start, r.End = raw.ItemID, start, end
	return nil
}

// parseTimestamp returns the zero time for an empty string so that the
// required rule reports it.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

type createItemRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"required"`
	Available   *bool  `json:"available" validate:"required"`
	RequestID   *int64 `json:"requestId" validate:"omitempty,gt=0"`
}

func (r *createItemRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
}

func (r *createItemRequest) item() *models.Item {
	return &models.Item{
		Name:        r.Name,
		Description: r.Description,
		Available:   *r.Available,
		RequestID:   r.RequestID,
	}
}

type updateItemRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	Available   *bool   `json:"available"`
}

func (r *updateItemRequest) patch() models.ItemPatch {
	return models.ItemPatch{Name: r.Name, Description: r.Description, Available: r.Available}
}

type createUserRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func (r *createUserRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
}

type commentRequest struct {
	Text string `json:"text" validate:"required"`
}

func (r *commentRequest) normalize() {
	r.Text = strings.TrimSpace(r.Text)
}

// newValidator builds the request validator. notpast accepts instants at
// or after the current second of now.
func newValidator(now func() time.Time) *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		t, ok := fl.Field().Interface().(time.Time)
		if !ok {
			return false
		}
		return !t.Before(now().Truncate(time.Second))
	})
	return v
}

type normalizer interface {
	normalize()
}

func (s *HTTPServer) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalidf("invalid JSON body: %v", err)
	}
	if n, ok := dst.(normalizer); ok {
		n.normalize()
	}
	if err := s.validate.Struct(dst); err != nil {
		return validationError(err)
	}
	return nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Invalidf("%v", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed on '%s'", fe.Field(), fe.Tag()))
	}
	return domain.Invalidf("%s", strings.Join(msgs, "; "))
}

func (s *HTTPServer) actingUser(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.Header.Get(s.booking.UserHeader))
	if raw == "" {
		return 0, domain.Invalidf("missing %s header", s.booking.UserHeader)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalidf("invalid %s header %q", s.booking.UserHeader, raw)
	}
	return id, nil
}

func pathID(ps httprouter.Params, name string) (int64, error) {
	raw := ps.ByName(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.Invalidf("invalid %s %q", name, raw)
	}
	return id, nil
}

// pageParams reads from and size. Missing values take the defaults.
func (s *HTTPServer) pageParams(r *http.Request) (from, size int, err error) {
	q := r.URL.Query()

	from, err = intParam(q.Get("from"), 0)
	if err != nil {
		return 0, 0, domain.Invalidf("invalid from %q", q.Get("from"))
	}
	size, err = intParam(q.Get("size"), s.booking.DefaultPageSize)
	if err != nil {
		return 0, 0, domain.Invalidf("invalid size %q", q.Get("size"))
	}

	if from < 0 {
		return 0, 0, domain.Invalidf("from must not be negative, got %d", from)
	}
	if size < 1 {
		return 0, 0, domain.Invalidf("size must be positive, got %d", size)
	}
	return from, size, nil
}

func intParam(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func stateParam(r *http.Request) string {
	if state := r.URL.Query().Get("state"); state != "" {
		return state
	}
	return string(models.StateAll)
}
