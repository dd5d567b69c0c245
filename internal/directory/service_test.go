package directory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JonMunkholm/scimfile/internal/mapping"
)

func TestService_ListUsersRefreshesWithoutFilter(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "users.csv", csvFile("E1,alice,Smith,Alice,a@x.io,active,1,"))
	c, _ := newTestCoordinator(t, path)
	svc := NewService(c)
	ctx := context.Background()

	page, err := svc.ListUsers(ctx, nil, nil)
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if page.TotalResults != 1 {
		t.Errorf("TotalResults = %d, want 1", page.TotalResults)
	}

	writeFile(t, dir, "users.csv", csvFile(
		"E1,alice,Smith,Alice,a@x.io,active,1,",
		"E2,bob,Jones,Bob,b@x.io,active,1,",
		"E3,carol,Brown,Carol,c@x.io,active,1,",
	))
	page, err = svc.ListUsers(ctx, nil, &PageRequest{StartIndex: 2, Count: 1})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if page.TotalResults != 3 || !equalStrings(ids(page.Resources), []string{"E2"}) {
		t.Errorf("page = total %d %v, want total 3 [E2]", page.TotalResults, ids(page.Resources))
	}
}

func TestService_FilterDoesNotRefresh(t *testing.T) {
	path := writeFile(t, t.TempDir(), "users.csv", csvFile("E1,alice,Smith,Alice,a@x.io,active,1,"))
	c, _ := newTestCoordinator(t, path)
	svc := NewService(c)
	f := Equality{Path: AttributePath{Name: "userName"}, Value: "alice"}

	page, err := svc.ListUsers(context.Background(), f, &PageRequest{StartIndex: 3, Count: 1})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if page.TotalResults != 0 {
		t.Errorf("filter before any refresh found %d users, want 0", page.TotalResults)
	}

	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	page, err = svc.ListUsers(context.Background(), f, &PageRequest{StartIndex: 3, Count: 1})
	if err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}
	if page.TotalResults != 1 || page.StartIndex != 3 || len(page.Resources) != 1 {
		t.Errorf("page = %+v, want one match echoing startIndex 3", page)
	}
}

func TestService_ListUsersReportsRefreshFailure(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "users.csv", csvFile("E1,alice,Smith,Alice,a@x.io,active,1,"))
	c, _ := newTestCoordinator(t, path)
	svc := NewService(c)

	if _, err := svc.ListUsers(context.Background(), nil, nil); err != nil {
		t.Fatalf("ListUsers() error = %v", err)
	}

	writeFile(t, dir, "users.csv", csvFile("E1,alice,Smith,Alice,a@x.io,active,x,"))
	if _, err := svc.ListUsers(context.Background(), nil, nil); err == nil {
		t.Fatal("ListUsers() should report the failed refresh")
	}

	st := svc.Status()
	if st.Users != 1 || st.LastError == "" || st.LastErrorAt.IsZero() {
		t.Errorf("Status() = %+v, want previous users and the last error", st)
	}
}

func TestService_GetUser(t *testing.T) {
	path := writeFile(t, t.TempDir(), "users.csv", csvFile("E1,alice,Smith,Alice,a@x.io,active,1,"))
	c, _ := newTestCoordinator(t, path)
	svc := NewService(c)
	if _, err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	u, err := svc.GetUser(context.Background(), "E1")
	if err != nil || u.UserName != "alice" {
		t.Errorf("GetUser(E1) = %v, %v", u, err)
	}
	if _, err := svc.GetUser(context.Background(), "nope"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser(nope) error = %v, want ErrUserNotFound", err)
	}
}

func TestService_GroupsAndCapabilities(t *testing.T) {
	svc := NewService(NewCoordinator(Settings{}, NewStore()))

	groups, err := svc.ListGroups(context.Background(), &PageRequest{StartIndex: 1, Count: 10})
	if err != nil {
		t.Fatalf("ListGroups() error = %v", err)
	}
	if groups.TotalResults != 0 || len(groups.Resources) != 0 || groups.Resources == nil {
		t.Errorf("ListGroups() = %+v, want empty", groups)
	}

	if !svc.Supports(ResourceUser, OpRead) {
		t.Error("reading users should be supported")
	}
	for _, op := range []Operation{OpCreate, OpUpdate, OpDelete} {
		if svc.Supports(ResourceUser, op) {
			t.Errorf("%s on users should not be supported", op)
		}
	}
	if svc.Supports(ResourceGroup, OpRead) {
		t.Error("groups should not be supported")
	}

	caps := svc.Capabilities()
	caps[0].Operation = OpDelete
	if !svc.Supports(ResourceUser, OpRead) {
		t.Error("Capabilities() must return a copy")
	}
}

func TestService_ConcurrentRefreshesShareOneRun(t *testing.T) {
	path := writeFile(t, t.TempDir(), "users.csv", csvFile("E1,alice,Smith,Alice,a@x.io,active,1,"))
	set := testMappingSet(t)

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	c := NewCoordinator(Settings{UsersFilePath: path, InactiveValue: "inactive"}, NewStore(),
		WithMappingLoader(func() (*mapping.Set, error) {
			if calls.Add(1) == 1 {
				close(started)
			}
			<-release
			return set, nil
		}))
	svc := NewService(c)

	var wg sync.WaitGroup
	results := make([]RefreshResult, 4)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Refresh(context.Background())
			if err != nil {
				t.Errorf("Refresh() error = %v", err)
			}
			results[i] = res
		}(i)
		if i == 0 {
			<-started
		}
	}

	// Give the joining callers time to reach the in-flight call.
	time.Sleep(100 * time.Millisecond)
	if !svc.Status().RefreshInFlight {
		t.Error("Status() should report the running refresh")
	}
	close(release)
	wg.Wait()

	if n := calls.Load(); n != 1 {
		t.Errorf("mapping loaded %d times, want 1", n)
	}
	for i, res := range results {
		if res.Generation != results[0].Generation {
			t.Errorf("caller %d got generation %s, want %s", i, res.Generation, results[0].Generation)
		}
	}
	if svc.Status().RefreshInFlight {
		t.Error("RefreshInFlight should clear after the refresh")
	}
}

func TestService_StartRefreshScheduler(t *testing.T) {
	path := writeFile(t, t.TempDir(), "users.csv", csvFile("E1,alice,Smith,Alice,a@x.io,active,1,"))
	c, _ := newTestCoordinator(t, path)
	svc := NewService(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartRefreshScheduler(ctx, 10*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for c.Store().Current().Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done

	if c.Store().Current().Len() != 1 {
		t.Error("scheduler should have refreshed the cache")
	}
}

func TestService_StartRefreshSchedulerDisabled(t *testing.T) {
	svc := NewService(NewCoordinator(Settings{}, NewStore()))
	// Returns immediately; a blocking call would hang the test.
	svc.StartRefreshScheduler(context.Background(), 0)
}
