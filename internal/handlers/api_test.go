package handlers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"promptforge/internal/export"
	"promptforge/internal/models"
	"promptforge/internal/order"
	"promptforge/internal/snapshot"
	"promptforge/internal/store"
	"promptforge/internal/workspace"
)

// testEnv holds an API over an in-memory workspace.
type testEnv struct {
	API *API
	WS  *workspace.Workspace
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ws := workspace.New(store.New(), snapshot.NewMemory(),
		workspace.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	api := NewAPI(ws, nil, export.NewPublisher(nil, ws.Store()))
	t.Cleanup(api.Close)
	return &testEnv{API: api, WS: ws}
}

// call invokes h with a JSON body and chi URL params given as key/value
// pairs.
func call(t *testing.T, h http.HandlerFunc, method, target string, body any, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rd)
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(params); i += 2 {
		rctx.URLParams.Add(params[i], params[i+1])
	}
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func createdID(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}
	var out map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode created body: %v", err)
	}
	if out["id"] == "" {
		t.Fatal("created response has no id")
	}
	return out["id"]
}

func wantStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status: got %d, want %d (body %s)", rec.Code, want, rec.Body.String())
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{workspace.ErrVersionLocked, http.StatusLocked},
		{fmt.Errorf("write: %w", workspace.ErrVersionLocked), http.StatusLocked},
		{workspace.ErrDuplicateItem, http.StatusConflict},
		{order.ErrExhausted, http.StatusConflict},
		{workspace.ErrNoSelection, http.StatusUnprocessableEntity},
		{workspace.ErrInvalidDrop, http.StatusUnprocessableEntity},
		{workspace.ErrInvalidDragID, http.StatusBadRequest},
		{export.ErrUnknownFormat, http.StatusBadRequest},
		{export.ErrNotFound, http.StatusNotFound},
		{export.ErrPublishingDisabled, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteOpErrorHidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	writeOpError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("password=hunter2"))
	wantStatus(t, rec, http.StatusInternalServerError)
	if strings.Contains(rec.Body.String(), "hunter2") {
		t.Errorf("internal error leaked: %s", rec.Body.String())
	}
}

func TestDecode(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{"name":`, http.StatusBadRequest},
		{"unknown field", `{"name":"x","colour":"red"}`, http.StatusBadRequest},
		{"too large", `{"name":"` + strings.Repeat("a", maxRequestBytes) + `"}`, http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, env.API.CreateGroup, http.MethodPost, "/api/groups", tt.body)
			wantStatus(t, rec, tt.want)
			if st := env.API.Stats(); st.Groups != 0 {
				t.Errorf("group created from rejected body")
			}
		})
	}
}

func TestGroupHandlers(t *testing.T) {
	env := newTestEnv(t)

	wantStatus(t, call(t, env.API.CreateGroup, http.MethodPost, "/api/groups", map[string]string{"name": " "}), http.StatusBadRequest)
	gid := createdID(t, call(t, env.API.CreateGroup, http.MethodPost, "/api/groups",
		map[string]string{"name": "Characters", "sort": "people"}))

	rec := call(t, env.API.GetGroup, http.MethodGet, "/api/groups/"+gid, nil, "groupID", gid)
	wantStatus(t, rec, http.StatusOK)
	var detail groupDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if detail.Name != "Characters" || detail.Sort != "people" || detail.Status != models.GroupStatusActive {
		t.Errorf("group: %+v", detail.Group)
	}

	wantStatus(t, call(t, env.API.UpdateGroup, http.MethodPatch, "/", map[string]string{"status": "deleted"}, "groupID", gid), http.StatusBadRequest)
	wantStatus(t, call(t, env.API.UpdateGroup, http.MethodPatch, "/", map[string]string{"sort": "x"}, "groupID", gid), http.StatusBadRequest)
	wantStatus(t, call(t, env.API.UpdateGroup, http.MethodPatch, "/",
		map[string]string{"name": "Cast", "status": "archived"}, "groupID", gid), http.StatusNoContent)
	g, _ := env.WS.Store().Group(models.GroupID(gid))
	if g.Name != "Cast" || g.Status != models.GroupStatusArchived {
		t.Errorf("after update: %+v", g)
	}

	dup := createdID(t, call(t, env.API.DuplicateGroup, http.MethodPost, "/", nil, "groupID", gid))
	if dup == gid {
		t.Error("duplicate reused the source id")
	}
	wantStatus(t, call(t, env.API.MoveGroup, http.MethodPost, "/", map[string]int{"toIndex": 0}, "groupID", dup), http.StatusNoContent)
	if groups := env.WS.Store().Groups(); groups[0].ID != models.GroupID(dup) {
		t.Errorf("moved group not first: %s", groups[0].ID)
	}

	wantStatus(t, call(t, env.API.DeleteGroup, http.MethodDelete, "/", nil, "groupID", gid), http.StatusNoContent)
	wantStatus(t, call(t, env.API.GetGroup, http.MethodGet, "/", nil, "groupID", gid), http.StatusNotFound)
	wantStatus(t, call(t, env.API.DuplicateGroup, http.MethodPost, "/", nil, "groupID", gid), http.StatusNotFound)
}

func TestElementHandlers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gid := string(env.WS.AddGroup(ctx, "Characters", ""))

	wantStatus(t, call(t, env.API.CreateElement, http.MethodPost, "/", map[string]string{"name": "Hero"},
		"groupID", "missing"), http.StatusNotFound)
	eid := createdID(t, call(t, env.API.CreateElement, http.MethodPost, "/", map[string]string{"name": "Hero"}, "groupID", gid))
	params := []string{"groupID", gid, "elementID", eid}

	rec := call(t, env.API.SaveElement, http.MethodPost, "/", workspace.ItemEdit{Name: "Hero", Body: "A {{trait}} hero"}, params...)
	wantStatus(t, rec, http.StatusOK)
	var saved map[string]int
	json.Unmarshal(rec.Body.Bytes(), &saved)
	if saved["version"] != 1 {
		t.Errorf("save version: got %d, want 1", saved["version"])
	}

	// Writes below the head are refused.
	rec = call(t, env.API.WriteElement, http.MethodPut, "/", workspace.ItemAttributes{Name: "Hero", Body: "rewrite", Version: 0}, params...)
	wantStatus(t, rec, http.StatusLocked)

	wantStatus(t, call(t, env.API.SelectElementVersion, http.MethodPost, "/", map[string]int{"version": 7}, params...), http.StatusNotFound)
	wantStatus(t, call(t, env.API.SelectElementVersion, http.MethodPost, "/", map[string]int{"version": 0}, params...), http.StatusNoContent)
	wantStatus(t, call(t, env.API.PinElement, http.MethodPost, "/", map[string]bool{"pinned": true}, params...), http.StatusNoContent)

	bid := string(env.WS.AddBadge(ctx, "Draft", "pencil"))
	wantStatus(t, call(t, env.API.SetElementLabels, http.MethodPut, "/", map[string][]string{"labels": {bid, "unknown"}}, params...), http.StatusNoContent)

	rec = call(t, env.API.GetElement, http.MethodGet, "/", nil, params...)
	wantStatus(t, rec, http.StatusOK)
	var e models.Element
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode element: %v", err)
	}
	if e.SelectedVersion != 0 || e.VersionCounter != 1 || !e.Pinned {
		t.Errorf("element state: selected %d counter %d pinned %v", e.SelectedVersion, e.VersionCounter, e.Pinned)
	}
	if len(e.Labels) != 1 || e.Labels[0] != models.BadgeID(bid) {
		t.Errorf("labels: %v", e.Labels)
	}

	copyID := createdID(t, call(t, env.API.DuplicateElement, http.MethodPost, "/", nil, params...))
	if len(env.WS.Store().Elements(models.GroupID(gid))) != 2 {
		t.Errorf("duplicate %s not stored", copyID)
	}

	other := string(env.WS.AddGroup(ctx, "Places", ""))
	wantStatus(t, call(t, env.API.MoveElement, http.MethodPost, "/", map[string]string{"groupId": "nowhere"}, params...), http.StatusNotFound)
	wantStatus(t, call(t, env.API.MoveElement, http.MethodPost, "/", map[string]string{"groupId": other}, params...), http.StatusNoContent)
	if _, ok := env.WS.Store().Element(models.GroupID(other), models.ElementID(eid)); !ok {
		t.Fatal("element not moved to the other group")
	}
	wantStatus(t, call(t, env.API.GetElement, http.MethodGet, "/", nil, params...), http.StatusNotFound)

	wantStatus(t, call(t, env.API.DeleteElement, http.MethodDelete, "/", nil, "groupID", other, "elementID", eid), http.StatusNoContent)
	if _, ok := env.WS.Store().FindElement(models.ElementID(eid)); ok {
		t.Error("element still present after delete")
	}
}

func TestSaveElementValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	gid := env.WS.AddGroup(ctx, "Characters", "")
	eid := env.WS.AddElement(ctx, gid, "Hero")

	rec := call(t, env.API.SaveElement, http.MethodPost, "/",
		workspace.ItemEdit{Name: "Hero", Body: strings.Repeat("x", maxBodyLen+1)},
		"groupID", string(gid), "elementID", string(eid))
	wantStatus(t, rec, http.StatusBadRequest)
	if e, _ := env.WS.Store().Element(gid, eid); e.VersionCounter != 0 {
		t.Errorf("rejected save created version %d", e.VersionCounter)
	}
}

func TestBadgeAndModifierHandlers(t *testing.T) {
	env := newTestEnv(t)

	bid := createdID(t, call(t, env.API.CreateBadge, http.MethodPost, "/", badgeRequest{Name: "Draft", Icon: "pencil"}))
	wantStatus(t, call(t, env.API.UpdateBadge, http.MethodPut, "/", badgeRequest{Name: "Final", Icon: "check"}, "badgeID", bid), http.StatusNoContent)
	if b, _ := env.WS.Store().Badge(models.BadgeID(bid)); b.Name != "Final" || b.Icon != "check" {
		t.Errorf("badge after update: %+v", b)
	}
	wantStatus(t, call(t, env.API.DeleteBadge, http.MethodDelete, "/", nil, "badgeID", bid), http.StatusNoContent)
	wantStatus(t, call(t, env.API.DeleteBadge, http.MethodDelete, "/", nil, "badgeID", bid), http.StatusNotFound)

	mg := createdID(t, call(t, env.API.CreateModifierGroup, http.MethodPost, "/", map[string]string{"name": "Moods"}))
	wantStatus(t, call(t, env.API.RenameModifierGroup, http.MethodPatch, "/", map[string]string{"name": "Tone"}, "modifierGroupID", mg), http.StatusNoContent)

	wantStatus(t, call(t, env.API.CreateModifier, http.MethodPost, "/", modifierRequest{Name: "Grim", Modifier: "grim"},
		"modifierGroupID", "missing"), http.StatusNotFound)
	mid := createdID(t, call(t, env.API.CreateModifier, http.MethodPost, "/", modifierRequest{Name: "Grim", Modifier: "grim"}, "modifierGroupID", mg))
	wantStatus(t, call(t, env.API.UpdateModifier, http.MethodPut, "/", modifierRequest{Name: "Grim", Modifier: "very grim"},
		"modifierGroupID", mg, "modifierID", mid), http.StatusNoContent)

	rec := call(t, env.API.ListModifierGroups, http.MethodGet, "/", nil)
	wantStatus(t, rec, http.StatusOK)
	var groups []modifierGroupDetail
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(groups) != 1 || groups[0].Name != "Tone" || len(groups[0].Modifiers) != 1 || groups[0].Modifiers[0].Modifier != "very grim" {
		t.Errorf("modifier groups: %+v", groups)
	}

	wantStatus(t, call(t, env.API.DeleteModifier, http.MethodDelete, "/", nil, "modifierGroupID", mg, "modifierID", mid), http.StatusNoContent)
	wantStatus(t, call(t, env.API.DeleteModifierGroup, http.MethodDelete, "/", nil, "modifierGroupID", mg), http.StatusNoContent)
	if st := env.API.Stats(); st.ModifierGroups != 0 || st.Modifiers != 0 {
		t.Errorf("stats after delete: %+v", st)
	}
}

// templateEnv is a template "Story" with one section holding a hero whose
// {{trait}} field can be bound.
type templateEnv struct {
	*testEnv
	gid, eid, tid, sid string
}

func newTemplateEnv(t *testing.T) templateEnv {
	t.Helper()
	env := newTestEnv(t)
	ctx := context.Background()
	gid := env.WS.AddGroup(ctx, "Characters", "")
	eid := env.WS.AddElement(ctx, gid, "Hero")
	env.WS.SaveItem(ctx, gid, eid, workspace.ItemEdit{Name: "Hero", Body: "A {{trait}} hero"})

	tid := createdID(t, call(t, env.API.CreateTemplate, http.MethodPost, "/", templateRequest{Name: "Story"}))
	sid := createdID(t, call(t, env.API.CreateSection, http.MethodPost, "/", map[string]string{"name": "Intro"}, "templateID", tid))
	return templateEnv{testEnv: env, gid: string(gid), eid: string(eid), tid: tid, sid: sid}
}

func (e templateEnv) sectionParams(version string) []string {
	return []string{"templateID", e.tid, "version", version, "sectionID", e.sid}
}

func (e templateEnv) itemParams(version string) []string {
	return append(e.sectionParams(version), "elementID", e.eid)
}

func TestSectionItemHandlers(t *testing.T) {
	env := newTemplateEnv(t)
	item := sectionItemRequest{ElementID: models.ElementID(env.eid), GroupID: models.GroupID(env.gid)}

	wantStatus(t, call(t, env.API.AddSectionItem, http.MethodPost, "/", item, env.sectionParams("0")...), http.StatusCreated)
	wantStatus(t, call(t, env.API.AddSectionItem, http.MethodPost, "/", item, env.sectionParams("0")...), http.StatusConflict)
	wantStatus(t, call(t, env.API.AddSectionItem, http.MethodPost, "/",
		sectionItemRequest{ElementID: "missing", GroupID: models.GroupID(env.gid)}, env.sectionParams("0")...), http.StatusNotFound)
	wantStatus(t, call(t, env.API.AddSectionItem, http.MethodPost, "/", item, env.sectionParams("x")...), http.StatusBadRequest)

	rec := call(t, env.API.IncrementVersion, http.MethodPost, "/", nil, "templateID", env.tid)
	wantStatus(t, rec, http.StatusCreated)
	var inc map[string]int
	json.Unmarshal(rec.Body.Bytes(), &inc)
	if inc["version"] != 1 {
		t.Fatalf("increment: got version %d, want 1", inc["version"])
	}

	// Version 0 is history now.
	wantStatus(t, call(t, env.API.RenameSection, http.MethodPut, "/", map[string]string{"name": "Opening"}, env.sectionParams("0")...), http.StatusLocked)
	wantStatus(t, call(t, env.API.RemoveSectionItem, http.MethodDelete, "/", nil, env.itemParams("0")...), http.StatusLocked)
	wantStatus(t, call(t, env.API.RenameSection, http.MethodPut, "/", map[string]string{"name": "Opening"}, env.sectionParams("1")...), http.StatusNoContent)

	dup := createdID(t, call(t, env.API.DuplicateSection, http.MethodPost, "/", nil, env.sectionParams("1")...))
	wantStatus(t, call(t, env.API.MoveSection, http.MethodPost, "/", map[string]int{"toIndex": 0},
		"templateID", env.tid, "version", "1", "sectionID", dup), http.StatusNoContent)
	wantStatus(t, call(t, env.API.RefreshSectionItemFields, http.MethodPost, "/", nil, env.itemParams("1")...), http.StatusNoContent)
	wantStatus(t, call(t, env.API.RemoveSectionItem, http.MethodDelete, "/", nil, env.itemParams("1")...), http.StatusNoContent)
	wantStatus(t, call(t, env.API.RemoveSectionItem, http.MethodDelete, "/", nil, env.itemParams("1")...), http.StatusNotFound)
	wantStatus(t, call(t, env.API.DeleteSection, http.MethodDelete, "/", nil, env.sectionParams("1")...), http.StatusNoContent)

	rec = call(t, env.API.RevertVersion, http.MethodPost, "/", map[string]int{"version": 0}, "templateID", env.tid)
	wantStatus(t, rec, http.StatusCreated)
	var rev map[string]int
	json.Unmarshal(rec.Body.Bytes(), &rev)
	if rev["version"] != 2 {
		t.Errorf("revert: got version %d, want 2", rev["version"])
	}
	wantStatus(t, call(t, env.API.RevertVersion, http.MethodPost, "/", map[string]int{"version": 9}, "templateID", env.tid), http.StatusNotFound)
	wantStatus(t, call(t, env.API.SelectTemplateVersion, http.MethodPost, "/", map[string]int{"version": 0}, "templateID", env.tid), http.StatusNoContent)
	if tg, _ := env.WS.Store().Template(models.TemplateGroupID(env.tid)); tg.SelectedVersion != 0 {
		t.Errorf("selected version: got %d, want 0", tg.SelectedVersion)
	}
}

func TestFieldBindingAndExport(t *testing.T) {
	env := newTemplateEnv(t)
	ctx := context.Background()
	item := sectionItemRequest{ElementID: models.ElementID(env.eid), GroupID: models.GroupID(env.gid)}
	wantStatus(t, call(t, env.API.AddSectionItem, http.MethodPost, "/", item, env.sectionParams("0")...), http.StatusCreated)

	mg := env.WS.AddModifierGroup(ctx, "Traits")
	mod := env.WS.AddModifier(ctx, mg, "Brave", "brave", "")
	tg, _ := env.WS.Store().Template(models.TemplateGroupID(env.tid))
	field := tg.Sections[0][models.SectionID(env.sid)].Items[0].Fields[0]

	fieldParams := append(env.itemParams("0"), "fieldID", string(field.TemplateFieldID))
	wantStatus(t, call(t, env.API.BindField, http.MethodPut, "/", models.FieldBinding{ModifierID: "nope", ModifierGroupID: mg}, fieldParams...), http.StatusNotFound)
	wantStatus(t, call(t, env.API.BindField, http.MethodPut, "/", models.FieldBinding{ModifierID: mod, ModifierGroupID: mg}, fieldParams...), http.StatusNoContent)

	unknownField := append(env.itemParams("0"), "fieldID", "no-such-field")
	wantStatus(t, call(t, env.API.BindField, http.MethodPut, "/", models.FieldBinding{ModifierID: mod, ModifierGroupID: mg}, unknownField...), http.StatusNotFound)
	wantStatus(t, call(t, env.API.UnbindField, http.MethodDelete, "/", nil, unknownField...), http.StatusNotFound)

	rec := call(t, env.API.Export, http.MethodGet, "/?version=0", nil, "templateID", env.tid)
	wantStatus(t, rec, http.StatusOK)
	want := "# Story\n\n## Intro\n\nA brave hero\n"
	if rec.Body.String() != want {
		t.Errorf("export:\n got %q\nwant %q", rec.Body.String(), want)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/markdown") {
		t.Errorf("content-type: %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "story-v0.md") {
		t.Errorf("content-disposition: %q", cd)
	}

	rec = call(t, env.API.Export, http.MethodGet, "/?format=html", nil, "templateID", env.tid)
	wantStatus(t, rec, http.StatusOK)
	if !strings.Contains(rec.Body.String(), "<h1") || !strings.Contains(rec.Body.String(), "A brave hero") {
		t.Errorf("html export: %s", rec.Body.String())
	}

	wantStatus(t, call(t, env.API.UnbindField, http.MethodDelete, "/", nil, fieldParams...), http.StatusNoContent)
	rec = call(t, env.API.Export, http.MethodGet, "/", nil, "templateID", env.tid)
	if !strings.Contains(rec.Body.String(), "A {{trait}} hero") {
		t.Errorf("unbound field substituted: %q", rec.Body.String())
	}

	wantStatus(t, call(t, env.API.Export, http.MethodGet, "/?format=pdf", nil, "templateID", env.tid), http.StatusBadRequest)
	wantStatus(t, call(t, env.API.Export, http.MethodGet, "/?version=-1", nil, "templateID", env.tid), http.StatusBadRequest)
	wantStatus(t, call(t, env.API.Export, http.MethodGet, "/?version=4", nil, "templateID", env.tid), http.StatusNotFound)
	wantStatus(t, call(t, env.API.Export, http.MethodGet, "/", nil, "templateID", "missing"), http.StatusNotFound)
}

func TestPublishDisabled(t *testing.T) {
	env := newTemplateEnv(t)
	params := []string{"templateID", env.tid}
	wantStatus(t, call(t, env.API.Publish, http.MethodPost, "/", map[string]string{"format": "md"}, params...), http.StatusServiceUnavailable)
	wantStatus(t, call(t, env.API.Share, http.MethodPost, "/", map[string]string{}, params...), http.StatusServiceUnavailable)
	wantStatus(t, call(t, env.API.Unpublish, http.MethodDelete, "/", nil, params...), http.StatusServiceUnavailable)
	wantStatus(t, call(t, env.API.Publish, http.MethodPost, "/", map[string]string{"format": "doc"}, params...), http.StatusBadRequest)
}

type memObjects struct {
	objects map[string][]byte
}

func (m *memObjects) Upload(_ context.Context, bucket, key, _ string, body []byte) error {
	m.objects[bucket+"/"+key] = body
	return nil
}

func (m *memObjects) Delete(_ context.Context, bucket, key string) error {
	delete(m.objects, bucket+"/"+key)
	return nil
}

func (m *memObjects) PresignedURL(_ context.Context, bucket, key string, expires time.Duration) (string, error) {
	return fmt.Sprintf("https://s3.example.com/%s/%s?expires=%d", bucket, key, int(expires.Seconds())), nil
}

func (m *memObjects) FileURL(key string) string { return "https://cdn.example.com/" + key }
func (m *memObjects) PublicBucket() string      { return "public" }
func (m *memObjects) PrivateBucket() string     { return "private" }

func TestPublishShareUnpublish(t *testing.T) {
	env := newTemplateEnv(t)
	objects := &memObjects{objects: map[string][]byte{}}
	api := NewAPI(env.WS, nil, export.NewPublisher(objects, env.WS.Store()))
	t.Cleanup(api.Close)
	params := []string{"templateID", env.tid}

	rec := call(t, api.Publish, http.MethodPost, "/", map[string]any{"version": 0, "format": "html"}, params...)
	wantStatus(t, rec, http.StatusCreated)
	var pub export.Published
	json.Unmarshal(rec.Body.Bytes(), &pub)
	if pub.URL != "https://cdn.example.com/exports/story-v0.html" {
		t.Errorf("published url: %q", pub.URL)
	}
	if _, ok := objects.objects["public/exports/story-v0.html"]; !ok {
		t.Fatal("object not uploaded")
	}

	wantStatus(t, call(t, api.Unpublish, http.MethodDelete, "/?version=0&format=html", nil, params...), http.StatusNoContent)
	if _, ok := objects.objects["public/exports/story-v0.html"]; ok {
		t.Error("object still present after unpublish")
	}

	wantStatus(t, call(t, api.Share, http.MethodPost, "/", map[string]string{"expiresIn": "soon"}, params...), http.StatusBadRequest)
	rec = call(t, api.Share, http.MethodPost, "/", map[string]string{"expiresIn": "2h"}, params...)
	wantStatus(t, rec, http.StatusCreated)
	json.Unmarshal(rec.Body.Bytes(), &pub)
	if pub.URL != "https://s3.example.com/private/shares/story-v0.md?expires=7200" || pub.ExpiresAt == nil {
		t.Errorf("share: %+v", pub)
	}
}

func TestDragHandlers(t *testing.T) {
	env := newTemplateEnv(t)
	item := sectionItemRequest{ElementID: models.ElementID(env.eid), GroupID: models.GroupID(env.gid)}
	wantStatus(t, call(t, env.API.AddSectionItem, http.MethodPost, "/", item, env.sectionParams("0")...), http.StatusCreated)
	outro := createdID(t, call(t, env.API.CreateSection, http.MethodPost, "/", map[string]string{"name": "Outro"}, "templateID", env.tid))

	active := env.sid + "-" + env.eid
	params := []string{"templateID", env.tid, "version", "0"}

	wantStatus(t, call(t, env.API.DragEnd, http.MethodPost, "/", dragRequest{ActiveID: "short", OverID: outro}, params...), http.StatusBadRequest)
	wantStatus(t, call(t, env.API.DragEnd, http.MethodPost, "/", dragRequest{ActiveID: env.sid, OverID: active}, params...), http.StatusUnprocessableEntity)
	wantStatus(t, call(t, env.API.DragOver, http.MethodPost, "/", dragRequest{ActiveID: active, OverID: outro}, params...), http.StatusNoContent)

	tg, _ := env.WS.Store().Template(models.TemplateGroupID(env.tid))
	if len(tg.Sections[0][models.SectionID(outro)].Items) != 1 {
		t.Errorf("item not moved across sections")
	}

	env.WS.IncrementTemplateGroupVersion(context.Background(), models.TemplateGroupID(env.tid))
	wantStatus(t, call(t, env.API.DragEnd, http.MethodPost, "/", dragRequest{ActiveID: outro, OverID: env.sid}, params...), http.StatusLocked)
}

func TestStateHandlers(t *testing.T) {
	src := newTemplateEnv(t)
	rec := call(t, src.API.GetState, http.MethodGet, "/api/state", nil)
	wantStatus(t, rec, http.StatusOK)
	data := rec.Body.Bytes()

	dst := newTestEnv(t)
	rec = call(t, dst.API.PutState, http.MethodPut, "/api/state", string(data))
	wantStatus(t, rec, http.StatusOK)
	if got, want := dst.API.Stats(), src.API.Stats(); got != want {
		t.Errorf("stats after import: got %+v, want %+v", got, want)
	}

	before := dst.API.Stats()
	rec = call(t, dst.API.PutState, http.MethodPut, "/api/state", `{"groups": 42}`)
	wantStatus(t, rec, http.StatusUnprocessableEntity)
	if dst.API.Stats() != before {
		t.Error("rejected import changed the store")
	}
}

func TestGenerationAdvancesOnWrite(t *testing.T) {
	env := newTestEnv(t)
	before := env.API.Generation()
	env.WS.AddGroup(context.Background(), "Characters", "")
	if env.API.Generation() == before {
		t.Error("generation unchanged after a store write")
	}
}

func TestEventsStream(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(http.HandlerFunc(env.API.Events))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content-type: %q", ct)
	}

	sc := bufio.NewScanner(resp.Body)
	// The connected comment is flushed once the subscription exists.
	if !sc.Scan() || sc.Text() != ": connected" {
		t.Fatalf("first line: %q", sc.Text())
	}
	gid := env.WS.AddGroup(context.Background(), "Characters", "")

	var gotEvent bool
	for sc.Scan() {
		line := sc.Text()
		if line == "event: group" {
			gotEvent = true
			continue
		}
		if gotEvent && strings.HasPrefix(line, "data: ") {
			var ev store.Event
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev); err != nil {
				t.Fatalf("decode event: %v", err)
			}
			if ev.Op != store.OpSet || ev.ID != string(gid) {
				t.Errorf("event: %+v", ev)
			}
			return
		}
	}
	t.Fatalf("no group event received: %v", sc.Err())
}

func TestBrokerCloseEndsStreams(t *testing.T) {
	b := newBroker()
	ch, ok := b.subscribe()
	if !ok {
		t.Fatal("subscribe on open broker failed")
	}
	b.close()
	if _, open := <-ch; open {
		t.Error("channel still open after close")
	}
	b.unsubscribe(ch)
	if _, ok := b.subscribe(); ok {
		t.Error("subscribe succeeded after close")
	}
	b.publish(store.Event{Kind: store.KindGroup})
}
