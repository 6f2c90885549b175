package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	catalogx "github.com/tanakrit/eduadmin-agent/agent/catalog"
	contractx "github.com/tanakrit/eduadmin-agent/agent/contract"
)

var now0 = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

/* --------------------------------- fakes --------------------------------- */

type fakeLiveStore struct {
	mu     sync.Mutex
	values map[string]map[string]any

	getCalls int
	setCalls int
	failGet  bool
	failSet  bool
}

func newFakeLiveStore() *fakeLiveStore {
	return &fakeLiveStore{values: make(map[string]map[string]any)}
}

func cloneRecord(rec map[string]any) map[string]any {
	raw, _ := json.Marshal(rec)
	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return out
}

func (f *fakeLiveStore) GetLiveValue(_ context.Context, path string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.failGet {
		return nil, fmt.Errorf("%w: live get failed", contractx.ErrStore)
	}
	if rec, ok := f.values[path]; ok {
		return cloneRecord(rec), nil
	}
	branch := make(map[string]any)
	for key, rec := range f.values {
		if strings.HasPrefix(key, path+"/") {
			branch[key[strings.LastIndexByte(key, '/')+1:]] = cloneRecord(rec)
		}
	}
	if len(branch) == 0 {
		return nil, fmt.Errorf("%w: live value %s", contractx.ErrNotFound, path)
	}
	return branch, nil
}

func (f *fakeLiveStore) SetLiveValue(_ context.Context, path string, value map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setCalls++
	if f.failSet {
		return fmt.Errorf("%w: live set failed", contractx.ErrStore)
	}
	f.values[path] = cloneRecord(value)
	return nil
}

func (f *fakeLiveStore) UpdateLiveValue(ctx context.Context, path string, patch map[string]any) error {
	current, err := f.GetLiveValue(ctx, path)
	if err != nil {
		return err
	}
	for field, value := range patch {
		current[field] = value
	}
	return f.SetLiveValue(ctx, path, current)
}

func (f *fakeLiveStore) RemoveLiveValue(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[path]; !ok {
		return fmt.Errorf("%w: live value %s", contractx.ErrNotFound, path)
	}
	delete(f.values, path)
	return nil
}

type fakeDocStore struct {
	mu   sync.Mutex
	docs map[string]map[string]map[string]any

	deleteCalls int
	failDelete  bool
	failQuery   bool
	queryLimit  int
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: make(map[string]map[string]map[string]any)}
}

func (f *fakeDocStore) seed(collection, id string, rec map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.docs[collection] == nil {
		f.docs[collection] = make(map[string]map[string]any)
	}
	f.docs[collection][id] = cloneRecord(rec)
}

func (f *fakeDocStore) GetDocument(_ context.Context, collection, id string) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.docs[collection][id]
	if !ok {
		return nil, fmt.Errorf("%w: document %s/%s", contractx.ErrNotFound, collection, id)
	}
	return cloneRecord(rec), nil
}

func (f *fakeDocStore) SetDocument(_ context.Context, collection, id string, rec map[string]any) error {
	f.seed(collection, id, rec)
	return nil
}

func (f *fakeDocStore) DeleteDocument(_ context.Context, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.failDelete {
		return fmt.Errorf("%w: delete failed", contractx.ErrStore)
	}
	if _, ok := f.docs[collection][id]; !ok {
		return fmt.Errorf("%w: document %s/%s", contractx.ErrNotFound, collection, id)
	}
	delete(f.docs[collection], id)
	return nil
}

func (f *fakeDocStore) QueryDocuments(_ context.Context, collection, _ string, limit int) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queryLimit = limit
	if f.failQuery {
		return nil, fmt.Errorf("%w: query failed", contractx.ErrStore)
	}
	records := make([]map[string]any, 0, len(f.docs[collection]))
	for _, rec := range f.docs[collection] {
		records = append(records, cloneRecord(rec))
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

/* -------------------------------- helpers -------------------------------- */

func newTestRegistry(t *testing.T) (*Registry, *fakeDocStore, *fakeLiveStore) {
	t.Helper()
	docs := newFakeDocStore()
	live := newFakeLiveStore()

	var seq atomic.Int64
	reg, err := New(docs, live,
		WithActor("agent-test"),
		WithClock(func() time.Time { return now0 }),
		WithIDGenerator(func() string {
			return fmt.Sprintf("id-%d", seq.Add(1))
		}),
	)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return reg, docs, live
}

func seedUser(t *testing.T, live *fakeLiveStore, user contractx.User) {
	t.Helper()
	rec, err := contractx.ToRecord(user)
	if err != nil {
		t.Fatalf("ToRecord() error = %v", err)
	}
	live.values[userPath(user.ID)] = rec
}

func seedSettings(t *testing.T, live *fakeLiveStore, settings contractx.SystemSettings) {
	t.Helper()
	rec, err := contractx.ToRecord(settings)
	if err != nil {
		t.Fatalf("ToRecord() error = %v", err)
	}
	live.values[pathSettings] = rec
}

func readUser(t *testing.T, live *fakeLiveStore, userID string) contractx.User {
	t.Helper()
	rec, ok := live.values[userPath(userID)]
	if !ok {
		t.Fatalf("user %s missing from live store", userID)
	}
	var user contractx.User
	if err := contractx.FromRecord(rec, &user); err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	return user
}

/* ------------------------------- dispatch -------------------------------- */

func TestDispatchUnknownOperation(t *testing.T) {
	t.Parallel()

	reg, _, _ := newTestRegistry(t)
	_, err := reg.Dispatch(context.Background(), "nonexistentOp", map[string]any{})
	if !errors.Is(err, contractx.ErrUnknownOperation) {
		t.Fatalf("error = %v, want ErrUnknownOperation", err)
	}
}

func TestDispatchValidationPrecedesStoreAccess(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	_, err := reg.Dispatch(context.Background(), catalogx.OpGrantSubscription, map[string]any{
		"userId": "u1", "plan": "DAILY", "level": "BASIC",
	})
	if !errors.Is(err, contractx.ErrInvalidArguments) {
		t.Fatalf("error = %v, want ErrInvalidArguments", err)
	}
	if live.getCalls != 0 || live.setCalls != 0 {
		t.Fatalf("store touched before validation: gets=%d sets=%d", live.getCalls, live.setCalls)
	}
}

func TestDispatchWrapsOperationName(t *testing.T) {
	t.Parallel()

	reg, _, _ := newTestRegistry(t)
	_, err := reg.Dispatch(context.Background(), catalogx.OpUnbanUser, map[string]any{"userId": "ghost"})
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if !strings.Contains(err.Error(), catalogx.OpUnbanUser) {
		t.Fatalf("error %q does not name the operation", err)
	}
}

/* --------------------------------- users --------------------------------- */

func TestUpdateUserMergePreservesUnrelatedFields(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Credits: 100, Role: "student"})

	result, err := reg.Dispatch(context.Background(), catalogx.OpUpdateUser, map[string]any{
		"userId":  "u1",
		"updates": map[string]any{"credits": 500},
	})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if !strings.Contains(result, "credits") {
		t.Fatalf("unexpected confirmation: %q", result)
	}

	user := readUser(t, live, "u1")
	if user.Credits != 500 {
		t.Fatalf("credits = %d, want 500", user.Credits)
	}
	if user.Name != "Ada" || user.Email != "ada@example.com" || user.Role != "student" {
		t.Fatalf("unrelated fields changed: %+v", user)
	}
}

func TestUpdateUserRejectsUnknownField(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{ID: "u1"})

	_, err := reg.Dispatch(context.Background(), catalogx.OpUpdateUser, map[string]any{
		"userId":  "u1",
		"updates": map[string]any{"passwordHash": "x"},
	})
	if !errors.Is(err, contractx.ErrInvalidArguments) {
		t.Fatalf("error = %v, want ErrInvalidArguments", err)
	}
	if live.setCalls != 0 {
		t.Fatal("write happened despite rejected patch")
	}
}

func TestWriteHandlersNotFoundNoWrite(t *testing.T) {
	t.Parallel()

	calls := []struct {
		op   string
		args map[string]any
	}{
		{catalogx.OpUpdateUser, map[string]any{"userId": "ghost", "updates": map[string]any{"credits": 1}}},
		{catalogx.OpBanUser, map[string]any{"userId": "ghost"}},
		{catalogx.OpUnbanUser, map[string]any{"userId": "ghost"}},
		{catalogx.OpGrantSubscription, map[string]any{"userId": "ghost", "plan": "WEEKLY", "level": "BASIC"}},
		{catalogx.OpSendInboxMessage, map[string]any{"userId": "ghost", "text": "hi"}},
	}
	for _, call := range calls {
		reg, _, live := newTestRegistry(t)
		_, err := reg.Dispatch(context.Background(), call.op, call.args)
		if !errors.Is(err, contractx.ErrNotFound) {
			t.Fatalf("%s: error = %v, want ErrNotFound", call.op, err)
		}
		if live.setCalls != 0 {
			t.Fatalf("%s: wrote despite missing user", call.op)
		}
	}
}

func TestBanAndUnbanToggleLock(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{ID: "u1", Name: "Ada"})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpBanUser, map[string]any{"userId": "u1", "reason": "spam"}); err != nil {
		t.Fatalf("ban error = %v", err)
	}
	if user := readUser(t, live, "u1"); !user.IsLocked {
		t.Fatal("user not locked after ban")
	}

	if _, err := reg.Dispatch(context.Background(), catalogx.OpUnbanUser, map[string]any{"userId": "u1"}); err != nil {
		t.Fatalf("unban error = %v", err)
	}
	if user := readUser(t, live, "u1"); user.IsLocked {
		t.Fatal("user still locked after unban")
	}
}

func TestDeleteUserRemovesBothStores(t *testing.T) {
	t.Parallel()

	reg, docs, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{ID: "u1"})
	docs.seed(collectionUsers, "u1", map[string]any{"id": "u1"})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpDeleteUser, map[string]any{"userId": "u1"}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if _, ok := live.values[userPath("u1")]; ok {
		t.Fatal("live record still present")
	}
	if _, ok := docs.docs[collectionUsers]["u1"]; ok {
		t.Fatal("durable record still present")
	}
}

func TestDeleteUserBestEffortAttemptsBoth(t *testing.T) {
	t.Parallel()

	reg, docs, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{ID: "u1"})
	docs.failDelete = true

	_, err := reg.Dispatch(context.Background(), catalogx.OpDeleteUser, map[string]any{"userId": "u1"})
	if !errors.Is(err, contractx.ErrStore) {
		t.Fatalf("error = %v, want ErrStore", err)
	}
	if _, ok := live.values[userPath("u1")]; ok {
		t.Fatal("live deletion skipped after durable failure")
	}
	if docs.deleteCalls != 1 {
		t.Fatalf("durable delete attempts = %d, want 1", docs.deleteCalls)
	}
}

/* ------------------------------ subscription ------------------------------ */

func TestGrantSubscriptionWeekly(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{ID: "u1", Name: "Ada"})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpGrantSubscription, map[string]any{
		"userId": "u1", "plan": "WEEKLY", "level": "BASIC",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	user := readUser(t, live, "u1")
	wantEnd := now0.AddDate(0, 0, 7)
	if user.SubscriptionEndDate == nil || !user.SubscriptionEndDate.Equal(wantEnd) {
		t.Fatalf("end date = %v, want %v", user.SubscriptionEndDate, wantEnd)
	}
	if !user.IsPremium || !user.IsGranted {
		t.Fatalf("premium/grant flags not set: %+v", user)
	}
	if user.SubscriptionTier != "WEEKLY" || user.SubscriptionLevel != "BASIC" {
		t.Fatalf("tier/level = %s/%s", user.SubscriptionTier, user.SubscriptionLevel)
	}

	if len(user.SubscriptionHistory) != 1 {
		t.Fatalf("history length = %d, want 1", len(user.SubscriptionHistory))
	}
	entry := user.SubscriptionHistory[0]
	if entry.Tier != "WEEKLY" || !entry.IsFree || entry.GrantSource != contractx.GrantSourceAdmin {
		t.Fatalf("unexpected history entry: %+v", entry)
	}
	if entry.GrantedBy != "agent-test" {
		t.Fatalf("grantedBy = %q", entry.GrantedBy)
	}
	if entry.Price != 0 || entry.PaidAmount != 0 {
		t.Fatalf("grant entries must be zero-cost: %+v", entry)
	}
}

func TestGrantSubscriptionLifetime(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{ID: "u1"})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpGrantSubscription, map[string]any{
		"userId": "u1", "plan": "LIFETIME", "level": "PRO",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	user := readUser(t, live, "u1")
	if user.SubscriptionEndDate != nil {
		t.Fatalf("lifetime grant must leave end date unset, got %v", user.SubscriptionEndDate)
	}
	if len(user.SubscriptionHistory) != 1 || user.SubscriptionHistory[0].EndDate != nil {
		t.Fatalf("lifetime history entry must have no end date: %+v", user.SubscriptionHistory)
	}
}

func TestGrantSubscriptionPrependsHistory(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	old := contractx.SubscriptionHistoryEntry{ID: "old", Tier: "MONTHLY", StartDate: now0.AddDate(0, -2, 0)}
	seedUser(t, live, contractx.User{ID: "u1", SubscriptionHistory: []contractx.SubscriptionHistoryEntry{old}})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpGrantSubscription, map[string]any{
		"userId": "u1", "plan": "YEARLY", "level": "PLUS",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	user := readUser(t, live, "u1")
	if len(user.SubscriptionHistory) != 2 {
		t.Fatalf("history length = %d, want 2", len(user.SubscriptionHistory))
	}
	if user.SubscriptionHistory[0].Tier != "YEARLY" || user.SubscriptionHistory[1].ID != "old" {
		t.Fatalf("history not prepended: %+v", user.SubscriptionHistory)
	}
}

func TestGrantSubscriptionConcurrentDistinctUsers(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{ID: "u1", Name: "Ada"})
	seedUser(t, live, contractx.User{ID: "u2", Name: "Ben"})

	var wg sync.WaitGroup
	for _, userID := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := reg.Dispatch(context.Background(), catalogx.OpGrantSubscription, map[string]any{
				"userId": id, "plan": "WEEKLY", "level": "BASIC",
			}); err != nil {
				t.Errorf("grant %s: %v", id, err)
			}
		}(userID)
	}
	wg.Wait()

	for _, id := range []string{"u1", "u2"} {
		user := readUser(t, live, id)
		if len(user.SubscriptionHistory) != 1 {
			t.Fatalf("user %s history length = %d, want 1", id, len(user.SubscriptionHistory))
		}
	}
	if readUser(t, live, "u1").Name != "Ada" || readUser(t, live, "u2").Name != "Ben" {
		t.Fatal("grants interfered across users")
	}
}

/* ------------------------------- messaging -------------------------------- */

func TestSendInboxMessagePrepends(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	existing := contractx.InboxMessage{ID: "m0", Text: "welcome", CreatedAt: now0.AddDate(0, 0, -1), Read: true, Type: contractx.MessageTypeText}
	seedUser(t, live, contractx.User{ID: "u1", Inbox: []contractx.InboxMessage{existing}})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpSendInboxMessage, map[string]any{
		"userId": "u1", "text": "hi",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	user := readUser(t, live, "u1")
	if len(user.Inbox) != 2 {
		t.Fatalf("inbox length = %d, want 2", len(user.Inbox))
	}
	first := user.Inbox[0]
	if first.Text != "hi" || first.Read || first.Type != contractx.MessageTypeText {
		t.Fatalf("unexpected first message: %+v", first)
	}
	if user.Inbox[1].ID != "m0" {
		t.Fatal("existing message not preserved at index 1")
	}
}

func TestBroadcastMessageSetsNotice(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedSettings(t, live, contractx.SystemSettings{Notice: "old", AIEnabled: true, Theme: "dark"})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpBroadcastMessage, map[string]any{
		"message": "maintenance tonight",
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	var settings contractx.SystemSettings
	if err := contractx.FromRecord(live.values[pathSettings], &settings); err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	if settings.Notice != "maintenance tonight" {
		t.Fatalf("notice = %q", settings.Notice)
	}
	if !settings.AIEnabled || settings.Theme != "dark" {
		t.Fatalf("unrelated settings changed: %+v", settings)
	}
}

func TestBroadcastMessageSettingsMissing(t *testing.T) {
	t.Parallel()

	reg, _, _ := newTestRegistry(t)
	_, err := reg.Dispatch(context.Background(), catalogx.OpBroadcastMessage, map[string]any{"message": "x"})
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

/* -------------------------------- settings -------------------------------- */

func TestUpdateSystemSettingsMerge(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedSettings(t, live, contractx.SystemSettings{Notice: "keep", AIEnabled: true})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpUpdateSystemSettings, map[string]any{
		"updates": map[string]any{"aiEnabled": false, "theme": "light"},
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	var settings contractx.SystemSettings
	if err := contractx.FromRecord(live.values[pathSettings], &settings); err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	if settings.AIEnabled || settings.Theme != "light" || settings.Notice != "keep" {
		t.Fatalf("unexpected settings: %+v", settings)
	}
}

func TestUpdateSystemSettingsRejectsUnknownField(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedSettings(t, live, contractx.SystemSettings{})

	_, err := reg.Dispatch(context.Background(), catalogx.OpUpdateSystemSettings, map[string]any{
		"updates": map[string]any{"adminPassword": "x"},
	})
	if !errors.Is(err, contractx.ErrInvalidArguments) {
		t.Fatalf("error = %v, want ErrInvalidArguments", err)
	}
	if live.setCalls != 0 {
		t.Fatal("write happened despite rejected patch")
	}
}

func TestCreateWeeklyTestAppendsEmptyShell(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedSettings(t, live, contractx.SystemSettings{WeeklyTests: []contractx.WeeklyTest{{ID: "t0", Name: "Week 0"}}})

	if _, err := reg.Dispatch(context.Background(), catalogx.OpCreateWeeklyTest, map[string]any{
		"name": "Week 1", "subject": "math", "questionCount": float64(10),
	}); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	var settings contractx.SystemSettings
	if err := contractx.FromRecord(live.values[pathSettings], &settings); err != nil {
		t.Fatalf("FromRecord() error = %v", err)
	}
	if len(settings.WeeklyTests) != 2 {
		t.Fatalf("tests length = %d, want 2", len(settings.WeeklyTests))
	}
	test := settings.WeeklyTests[1]
	if test.Name != "Week 1" || test.TotalScore != 10 {
		t.Fatalf("unexpected test: %+v", test)
	}
	if len(test.Questions) != 0 {
		t.Fatalf("new test must have no questions, got %d", len(test.Questions))
	}
	if test.IsActive {
		t.Fatal("new test must start inactive")
	}
}

func TestCreateWeeklyTestSettingsMissing(t *testing.T) {
	t.Parallel()

	reg, _, _ := newTestRegistry(t)
	_, err := reg.Dispatch(context.Background(), catalogx.OpCreateWeeklyTest, map[string]any{
		"name": "n", "subject": "s", "questionCount": float64(1),
	})
	if !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

/* ---------------------------------- scans --------------------------------- */

func TestScanUsersFilters(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	cutoff := now0.AddDate(0, -1, 0)
	recent := now0.AddDate(0, 0, -3)
	stale := now0.AddDate(0, -2, 0)

	seedUser(t, live, contractx.User{ID: "premium", IsPremium: true, LastActiveTime: &recent})
	seedUser(t, live, contractx.User{ID: "free", LastActiveTime: &recent})
	seedUser(t, live, contractx.User{ID: "never"})
	seedUser(t, live, contractx.User{ID: "stale", LastActiveTime: &stale})
	seedUser(t, live, contractx.User{ID: "boundary", LastActiveTime: &cutoff})

	cases := []struct {
		filter contractx.ScanFilter
		want   []string
	}{
		{contractx.ScanAll, []string{"boundary", "free", "never", "premium", "stale"}},
		{contractx.ScanPremium, []string{"premium"}},
		{contractx.ScanFree, []string{"boundary", "free", "never", "stale"}},
		{contractx.ScanInactive, []string{"never", "stale"}},
	}
	for _, tc := range cases {
		summaries, err := reg.ScanUsers(context.Background(), tc.filter)
		if err != nil {
			t.Fatalf("ScanUsers(%s) error = %v", tc.filter, err)
		}
		got := make([]string, 0, len(summaries))
		for _, s := range summaries {
			got = append(got, s.ID)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("ScanUsers(%s) = %v, want %v", tc.filter, got, tc.want)
		}
		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("ScanUsers(%s) = %v, want %v", tc.filter, got, tc.want)
			}
		}
	}
}

func TestScanUsersEmptyStore(t *testing.T) {
	t.Parallel()

	reg, _, _ := newTestRegistry(t)
	summaries, err := reg.ScanUsers(context.Background(), contractx.ScanAll)
	if err != nil {
		t.Fatalf("ScanUsers() error = %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected empty result, got %d", len(summaries))
	}
}

func TestScanUsersPropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	live.failGet = true

	_, err := reg.Dispatch(context.Background(), catalogx.OpScanUsers, map[string]any{"filter": "ALL"})
	if !errors.Is(err, contractx.ErrStore) {
		t.Fatalf("error = %v, want ErrStore", err)
	}
}

func TestScanUsersDispatchReturnsRedactedJSON(t *testing.T) {
	t.Parallel()

	reg, _, live := newTestRegistry(t)
	seedUser(t, live, contractx.User{
		ID: "u1", Name: "Ada", Email: "ada@example.com", Credits: 5,
		SubscriptionTier: "WEEKLY",
		Inbox:            []contractx.InboxMessage{{ID: "m1", Text: "secret"}},
	})

	result, err := reg.Dispatch(context.Background(), catalogx.OpScanUsers, map[string]any{"filter": "ALL"})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	var summaries []map[string]any
	if err := json.Unmarshal([]byte(result), &summaries); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}
	if _, ok := summaries[0]["inbox"]; ok {
		t.Fatal("scan leaked full record fields")
	}
	if summaries[0]["tier"] != "WEEKLY" {
		t.Fatalf("unexpected summary: %#v", summaries[0])
	}
}

/* ----------------------------------- logs ---------------------------------- */

func TestGetRecentLogsDefaultLimit(t *testing.T) {
	t.Parallel()

	reg, docs, _ := newTestRegistry(t)
	entry := contractx.AILogEntry{ID: "l1", Prompt: "p", Reply: "r", CreatedAt: now0}
	rec, err := contractx.ToRecord(entry)
	if err != nil {
		t.Fatalf("ToRecord() error = %v", err)
	}
	docs.seed(collectionAILogs, "l1", rec)

	result, err := reg.Dispatch(context.Background(), catalogx.OpGetRecentLogs, map[string]any{})
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if docs.queryLimit != defaultLogLimit {
		t.Fatalf("query limit = %d, want %d", docs.queryLimit, defaultLogLimit)
	}

	var entries []contractx.AILogEntry
	if err := json.Unmarshal([]byte(result), &entries); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "l1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestGetRecentLogsPropagatesStoreFailure(t *testing.T) {
	t.Parallel()

	reg, docs, _ := newTestRegistry(t)
	docs.failQuery = true

	_, err := reg.Dispatch(context.Background(), catalogx.OpGetRecentLogs, map[string]any{"limit": float64(5)})
	if !errors.Is(err, contractx.ErrStore) {
		t.Fatalf("error = %v, want ErrStore", err)
	}
}
