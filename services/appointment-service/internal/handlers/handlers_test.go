package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alvinroe04/scheduler/libs/auth"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/audit"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/hours"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/model"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/session"
	"github.com/alvinroe04/scheduler/services/appointment-service/internal/validation"
)

const testSecret = "test-secret"

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

type fakeAppointments struct {
	mu    sync.Mutex
	items map[int]model.Appointment
}

func newFakeAppointments(appts ...model.Appointment) *fakeAppointments {
	f := &fakeAppointments{items: map[int]model.Appointment{}}
	for _, a := range appts {
		f.items[a.ID] = a
	}
	return f
}

func (f *fakeAppointments) filter(keep func(model.Appointment) bool) []model.Appointment {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Appointment
	for _, a := range f.items {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (f *fakeAppointments) ListAll(context.Context) ([]model.Appointment, error) {
	return f.filter(func(model.Appointment) bool { return true }), nil
}

func (f *fakeAppointments) ListByCustomer(_ context.Context, id int) ([]model.Appointment, error) {
	return f.filter(func(a model.Appointment) bool { return a.CustomerID == id }), nil
}

func (f *fakeAppointments) ListByContact(_ context.Context, id int) ([]model.Appointment, error) {
	return f.filter(func(a model.Appointment) bool { return a.ContactID == id }), nil
}

func (f *fakeAppointments) Get(_ context.Context, id int) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeAppointments) IDs(context.Context) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for id := range f.items {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeAppointments) Create(_ context.Context, a model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[a.ID] = a
	return nil
}

func (f *fakeAppointments) Update(_ context.Context, a model.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[a.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.items[a.ID] = a
	return nil
}

func (f *fakeAppointments) Delete(_ context.Context, id int) (model.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.items[id]
	if !ok {
		return model.Appointment{}, pgx.ErrNoRows
	}
	delete(f.items, id)
	return a, nil
}

type fakeCustomers struct {
	mu           sync.Mutex
	items        map[int]model.Customer
	appointments *fakeAppointments
}

func (f *fakeCustomers) List(context.Context) ([]model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Customer
	for _, c := range f.items {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeCustomers) Get(_ context.Context, id int) (model.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.items[id]
	if !ok {
		return model.Customer{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCustomers) IDs(context.Context) ([]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []int
	for id := range f.items {
		out = append(out, id)
	}
	return out, nil
}

func (f *fakeCustomers) Create(_ context.Context, c model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = c
	return nil
}

func (f *fakeCustomers) Update(_ context.Context, c model.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[c.ID] = c
	return nil
}

func (f *fakeCustomers) Delete(ctx context.Context, id int) ([]int, error) {
	f.mu.Lock()
	_, ok := f.items[id]
	delete(f.items, id)
	f.mu.Unlock()
	if !ok {
		return nil, pgx.ErrNoRows
	}
	var removed []int
	owned, _ := f.appointments.ListByCustomer(ctx, id)
	for _, a := range owned {
		_, _ = f.appointments.Delete(ctx, a.ID)
		removed = append(removed, a.ID)
	}
	return removed, nil
}

type fakeRegions struct{}

func (fakeRegions) Countries(context.Context) ([]model.Country, error) {
	return []model.Country{{ID: 1, Name: "U.S"}, {ID: 2, Name: "UK"}}, nil
}

func (fakeRegions) Divisions(_ context.Context, countryID int) ([]model.Division, error) {
	all := []model.Division{{ID: 1, Name: "Alabama", CountryID: 1}, {ID: 101, Name: "England", CountryID: 2}}
	if countryID == 0 {
		return all, nil
	}
	var out []model.Division
	for _, d := range all {
		if d.CountryID == countryID {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeUsers struct{ users map[string]model.User }

func (f fakeUsers) GetByName(_ context.Context, name string) (model.User, error) {
	u, ok := f.users[name]
	if !ok {
		return model.User{}, pgx.ErrNoRows
	}
	return u, nil
}

type fakeAudit struct {
	mu       sync.Mutex
	attempts []audit.LoginAttempt
}

func (f *fakeAudit) RecordLogin(_ context.Context, a audit.LoginAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, a)
	return nil
}

func (f *fakeAudit) Recent(_ context.Context, limit int) ([]audit.LoginAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []audit.LoginAttempt
	for i := len(f.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.attempts[i])
	}
	return out, nil
}

type testEnv struct {
	handler      http.Handler
	appointments *fakeAppointments
	customers    *fakeCustomers
	audit        *fakeAudit
	ny           *time.Location
	token        string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	now := time.Date(2024, 3, 4, 12, 0, 0, 0, ny)
	nowFn := func() time.Time { return now }

	cal := hours.NewCalendar(hours.DefaultConfig(), fixedClock{t: now}, ny)
	if err := cal.Initialize(); err != nil {
		t.Fatalf("calendar: %v", err)
	}
	dir := session.NewDirectory()
	dir.Set(
		[]model.Contact{{ID: 1, Name: "Anika Costa"}, {ID: 2, Name: "Daniel Garcia"}, {ID: 3, Name: "Li Lee"}},
		[]model.User{{ID: 1, Name: "test"}},
	)

	hash, err := HashPassword("test")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	apptStore := newFakeAppointments()
	custStore := &fakeCustomers{
		items:        map[int]model.Customer{1: {ID: 1, Name: "Daddy Warbucks", DivisionID: 29}},
		appointments: apptStore,
	}
	auditRepo := &fakeAudit{}
	authHandler := NewAuthHandler(fakeUsers{users: map[string]model.User{"test": {ID: 1, Name: "test", PasswordHash: hash}}}, auditRepo, logger, AuthConfig{Secret: testSecret})

	v := validation.New(cal, ny, validation.DefaultMaxTextLength, nowFn)
	router := NewRouter(Routes{
		Auth:         authHandler,
		Appointments: NewAppointmentHandler(apptStore, v, logger, 15*time.Minute, SlotConfig{Length: time.Hour, Step: time.Hour}),
		Customers:    NewCustomerHandler(custStore, apptStore, logger, nowFn),
		Reports:      NewReportHandler(apptStore, nowFn),
		Lookups:      NewLookupHandler(fakeRegions{}),
		JWTSecret:    testSecret,
		Session:      SessionBase{Location: ny, Hours: cal, Directory: dir},
	})

	token, err := auth.SignHS256(auth.NewClaims(1, "test", "appointment-service", time.Hour, time.Now()), testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return &testEnv{handler: router, appointments: apptStore, customers: custStore, audit: auditRepo, ny: ny, token: token}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Authorization", "Bearer "+e.token)
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func stored(ny *time.Location, id, customerID int, startHour, endHour int) model.Appointment {
	return model.Appointment{
		ID:         id,
		Title:      "Existing",
		Type:       "Planning Session",
		CustomerID: customerID,
		ContactID:  3,
		UserID:     1,
		Start:      time.Date(2024, 3, 5, startHour, 0, 0, 0, ny),
		End:        time.Date(2024, 3, 5, endHour, 0, 0, 0, ny),
		CreatedAt:  time.Date(2024, 1, 1, 9, 0, 0, 0, ny),
		CreatedBy:  "admin",
	}
}

func newAppointmentBody(startHour, endHour string) appointmentRequest {
	return appointmentRequest{
		Title:       "Consult",
		Description: "Initial planning",
		Location:    "Room 4",
		Type:        "Planning Session",
		CustomerID:  1,
		ContactID:   2,
		Start:       timeFieldsRequest{Date: "2024-03-05", Hour: startHour, Minute: "00", Meridiem: "AM"},
		End:         timeFieldsRequest{Date: "2024-03-05", Hour: endHour, Minute: "00", Meridiem: "AM"},
	}
}

func decodeValidation(t *testing.T, rec *httptest.ResponseRecorder) validationResponse {
	t.Helper()
	var resp validationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestLoginIssuesTokenAndRecordsAttempts(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		password string
		status   int
	}{
		{"wrong", http.StatusUnauthorized},
		{"test", http.StatusOK},
	} {
		body := strings.NewReader(`{"user_name":"test","password":"` + tc.password + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		req.RemoteAddr = "10.0.0.7:5123"
		rec := httptest.NewRecorder()
		env.handler.ServeHTTP(rec, req)
		if rec.Code != tc.status {
			t.Fatalf("password %q: expected %d, got %d", tc.password, tc.status, rec.Code)
		}
		if tc.status == http.StatusOK {
			var resp loginResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			claims, err := auth.ParseAndVerifyHS256(resp.AccessToken, testSecret)
			if err != nil {
				t.Fatalf("issued token does not verify: %v", err)
			}
			if claims.UserID != 1 || claims.UserName != "test" {
				t.Fatalf("unexpected claims: %+v", claims)
			}
		}
	}

	if len(env.audit.attempts) != 2 {
		t.Fatalf("expected 2 recorded attempts, got %d", len(env.audit.attempts))
	}
	if env.audit.attempts[0].Success || !env.audit.attempts[1].Success {
		t.Fatalf("unexpected attempt results: %+v", env.audit.attempts)
	}
	if env.audit.attempts[0].RemoteAddr != "10.0.0.7" {
		t.Fatalf("expected remote host, got %q", env.audit.attempts[0].RemoteAddr)
	}
}

func TestLoginUnknownUserComparesDummyHash(t *testing.T) {
	hash, err := HashPassword("test")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	auditRepo := &fakeAudit{}
	h := NewAuthHandler(fakeUsers{users: map[string]model.User{"test": {ID: 1, Name: "test", PasswordHash: hash}}},
		auditRepo, slog.New(slog.NewTextHandler(io.Discard, nil)), AuthConfig{Secret: testSecret})
	var compared []string
	h.verify = func(hash, raw string) error {
		compared = append(compared, hash)
		return verifyPassword(hash, raw)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"user_name":"ghost","password":"test"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if len(compared) != 1 || compared[0] != dummyHash() || compared[0] == "" {
		t.Fatalf("expected one compare against the dummy hash, got %v", compared)
	}
	if len(auditRepo.attempts) != 1 || auditRepo.attempts[0].UserName != "ghost" || auditRepo.attempts[0].Success {
		t.Fatalf("unexpected attempts: %+v", auditRepo.attempts)
	}
}

func TestLoginHistoryNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	base := time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)
	env.audit.attempts = []audit.LoginAttempt{
		{UserName: "test", At: base, Success: false},
		{UserName: "test", At: base.Add(time.Minute), Success: true},
		{UserName: "admin", At: base.Add(2 * time.Minute), Success: false},
	}

	rec := env.do(t, http.MethodGet, "/api/v1/auth/logins?limit=2", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got []loginAttemptResponse
	if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0].UserName != "admin" || !got[1].Success {
		t.Fatalf("unexpected history: %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/auth/logins?limit=x", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestAPIRequiresToken(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments", nil)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestCreateAppointmentAllocatesNextID(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[1] = stored(env.ny, 1, 9, 13, 14)
	env.appointments.items[2] = stored(env.ny, 2, 9, 14, 15)
	env.appointments.items[5] = stored(env.ny, 5, 9, 15, 16)

	rec := env.do(t, http.MethodPost, "/api/v1/appointments", newAppointmentBody("9", "10"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	got, err := env.appointments.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("expected appointment 3 to fill the gap: %v", err)
	}
	if got.CreatedBy != "test" || got.UserID != 1 {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	if !got.Start.Equal(time.Date(2024, 3, 5, 9, 0, 0, 0, env.ny)) {
		t.Fatalf("unexpected start %s", got.Start)
	}
}

func TestCreateAppointmentReportsEveryProblem(t *testing.T) {
	env := newTestEnv(t)
	body := newAppointmentBody("ab", "10")
	body.Title = ""
	body.ContactID = 0

	rec := env.do(t, http.MethodPost, "/api/v1/appointments", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	resp := decodeValidation(t, rec)
	for _, want := range []struct {
		field validation.Field
		code  validation.Code
	}{
		{validation.FieldTitle, validation.CodeMissingField},
		{validation.FieldContact, validation.CodeMissingSelection},
		{validation.FieldStartHour, validation.CodeNotANumber},
	} {
		if !resp.Errors.HasCode(want.field, want.code) {
			t.Fatalf("missing %s/%s in %v", want.field, want.code, resp.Errors)
		}
	}
	if len(env.appointments.items) != 0 {
		t.Fatalf("nothing should be stored")
	}
	fields := map[validation.Field]bool{}
	for _, f := range resp.Fields {
		if fields[f] {
			t.Fatalf("field %s listed twice in %v", f, resp.Fields)
		}
		fields[f] = true
	}
	if !fields[validation.FieldTitle] || !fields[validation.FieldContact] || !fields[validation.FieldStartHour] {
		t.Fatalf("unexpected highlighted fields %v", resp.Fields)
	}
}

func TestValidateDraftStaysQuietUntilSaveAttempted(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[3] = stored(env.ny, 3, 1, 9, 11)

	decodeDraft := func(rec *httptest.ResponseRecorder) draftResponse {
		t.Helper()
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		var resp draftResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return resp
	}

	blank := newAppointmentBody("9", "10")
	blank.Title = ""
	resp := decodeDraft(env.do(t, http.MethodPost, "/api/v1/appointments/validate", draftRequest{appointmentRequest: blank}))
	if resp.Status != "not_yet_attempted" || len(resp.Errors) != 0 || len(resp.Fields) != 0 {
		t.Fatalf("fresh form should carry no errors: %+v", resp)
	}

	resp = decodeDraft(env.do(t, http.MethodPost, "/api/v1/appointments/validate", draftRequest{appointmentRequest: blank, Attempted: true}))
	if resp.Status != "rejected" || !resp.Errors.HasCode(validation.FieldTitle, validation.CodeMissingField) {
		t.Fatalf("expected missing title after save attempt: %+v", resp)
	}
	if resp.Conflict == nil || resp.Conflict.ID != 3 {
		t.Fatalf("expected conflict with appointment 3, got %+v", resp.Conflict)
	}

	// Editing appointment 3 itself must not conflict with its stored copy.
	edit := newAppointmentBody("9", "10")
	resp = decodeDraft(env.do(t, http.MethodPost, "/api/v1/appointments/validate", draftRequest{appointmentRequest: edit, AppointmentID: 3, Attempted: true}))
	if resp.Status != "accepted" || len(resp.Errors) != 0 {
		t.Fatalf("expected accepted draft, got %+v", resp)
	}

	rec := env.do(t, http.MethodPost, "/api/v1/appointments/validate", draftRequest{appointmentRequest: edit, AppointmentID: 42, Attempted: true})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown appointment, got %d", rec.Code)
	}
	if len(env.appointments.items) != 1 {
		t.Fatalf("validating a draft must not store it, have %d", len(env.appointments.items))
	}
}

func TestCreateAppointmentOverlapReturnsConflict(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[3] = stored(env.ny, 3, 1, 9, 11)

	rec := env.do(t, http.MethodPost, "/api/v1/appointments", newAppointmentBody("10", "11"))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	resp := decodeValidation(t, rec)
	if resp.Conflict == nil || resp.Conflict.ID != 3 {
		t.Fatalf("expected conflict with appointment 3, got %+v", resp.Conflict)
	}
	if !strings.Contains(resp.ConflictMessage, "#3") {
		t.Fatalf("unexpected conflict message %q", resp.ConflictMessage)
	}
	if !resp.Errors.HasCode(validation.FieldEndDate, validation.CodeOverlapConflict) {
		t.Fatalf("expected overlap flag on end date: %v", resp.Errors)
	}
}

func TestOverlapIgnoresOtherCustomers(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[3] = stored(env.ny, 3, 7, 9, 11)

	rec := env.do(t, http.MethodPost, "/api/v1/appointments", newAppointmentBody("9", "10"))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateAppointmentKeepsCreationMetadata(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[4] = stored(env.ny, 4, 1, 9, 10)

	// Moving the appointment inside its own old slot is not an overlap.
	rec := env.do(t, http.MethodPut, "/api/v1/appointments/4", newAppointmentBody("9", "11"))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := env.appointments.items[4]
	if got.CreatedBy != "admin" || got.UpdatedBy != "test" {
		t.Fatalf("unexpected metadata: %+v", got)
	}
	if got.Title != "Consult" || !got.End.Equal(time.Date(2024, 3, 5, 11, 0, 0, 0, env.ny)) {
		t.Fatalf("update not applied: %+v", got)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/appointments/40", newAppointmentBody("9", "11"))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestAppointmentFormUsesTwelveHourFields(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[4] = stored(env.ny, 4, 1, 13, 14)

	rec := env.do(t, http.MethodGet, "/api/v1/appointments/4/form", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var form appointmentRequest
	if err := json.NewDecoder(rec.Body).Decode(&form); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := timeFieldsRequest{Date: "2024-03-05", Hour: "1", Minute: "00", Meridiem: "PM"}
	if form.Start != want {
		t.Fatalf("expected %+v, got %+v", want, form.Start)
	}
}

func TestDeleteAppointment(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[4] = stored(env.ny, 4, 1, 9, 10)

	rec := env.do(t, http.MethodDelete, "/api/v1/appointments/4", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Planning Session") {
		t.Fatalf("expected type in response: %s", rec.Body.String())
	}
	rec = env.do(t, http.MethodDelete, "/api/v1/appointments/4", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListViews(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[1] = stored(env.ny, 1, 1, 9, 10)
	later := stored(env.ny, 2, 1, 9, 10)
	later.Start = later.Start.AddDate(0, 1, 0)
	later.End = later.End.AddDate(0, 1, 0)
	env.appointments.items[2] = later

	for view, want := range map[string]int{"all": 2, "week": 1, "month": 1} {
		rec := env.do(t, http.MethodGet, "/api/v1/appointments?view="+view, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", view, rec.Code)
		}
		var out []appointmentResponse
		if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(out) != want {
			t.Fatalf("%s: expected %d appointments, got %d", view, want, len(out))
		}
		if out[0].UserName != "test" || out[0].ContactName != "Li Lee" {
			t.Fatalf("%s: expected directory names, got %+v", view, out[0])
		}
	}
	rec := env.do(t, http.MethodGet, "/api/v1/appointments?view=year", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSlotsSkipBusyTimes(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[1] = stored(env.ny, 1, 1, 9, 10)

	rec := env.do(t, http.MethodGet, "/api/v1/appointments/slots?customer_id=1&date=2024-03-05", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp slotsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 08:00 to 22:00 in one-hour steps, minus 09:00.
	if len(resp.Slots) != 13 {
		t.Fatalf("expected 13 slots, got %d", len(resp.Slots))
	}
	for _, s := range resp.Slots {
		if s.Equal(time.Date(2024, 3, 5, 9, 0, 0, 0, env.ny)) {
			t.Fatalf("busy slot offered")
		}
	}
}

func TestCustomerLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[7] = stored(env.ny, 7, 1, 9, 10)

	rec := env.do(t, http.MethodPost, "/api/v1/customers", customerRequest{Name: " "})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	resp := decodeValidation(t, rec)
	if !resp.Errors.HasCode(validation.FieldDivision, validation.CodeMissingSelection) {
		t.Fatalf("expected division selection error: %v", resp.Errors)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/customers", customerRequest{
		Name: "Ada", Address: "1 Loop", PostalCode: "02139", Phone: "555-0100", DivisionID: 1,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if _, ok := env.customers.items[2]; !ok {
		t.Fatalf("expected customer 2 to be created")
	}

	rec = env.do(t, http.MethodDelete, "/api/v1/customers/1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if _, ok := env.appointments.items[7]; ok {
		t.Fatalf("customer appointments should be removed with the customer")
	}
}

func TestContactScheduleICS(t *testing.T) {
	env := newTestEnv(t)
	env.appointments.items[1] = stored(env.ny, 1, 1, 9, 10)

	rec := env.do(t, http.MethodGet, "/api/v1/reports/contacts/3/schedule.ics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "appointment-1@scheduler") {
		t.Fatalf("expected event in calendar: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Content-Disposition"), "li-lee.ics") {
		t.Fatalf("unexpected disposition %q", rec.Header().Get("Content-Disposition"))
	}

	rec = env.do(t, http.MethodGet, "/api/v1/reports/contacts/99/schedule", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestBusinessHoursTable(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/business-hours", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp businessHoursResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Days) != 7 || resp.Days[0].Weekday != "Monday" {
		t.Fatalf("unexpected table: %+v", resp.Days)
	}
	if resp.Days[0].Open != "8:00 AM" || resp.Days[0].Close != "10:00 PM" {
		t.Fatalf("unexpected Monday hours: %+v", resp.Days[0])
	}
}
