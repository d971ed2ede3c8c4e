package mapping

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"MatchTracker/internal/model"
)

const (
	idFootball = "9860e748-1f53-45ed-9a3f-2eeb46550083"
	idLeague   = "13605dbb-fb95-4373-8354-dbce8272086c"
	idLive     = "93f346fd-c921-4f67-b4c3-64fe1f466140"
	idMissing  = "11111111-2222-4333-8444-555555555555"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// mappingServer 按调用次数返回不同载荷，并统计请求数
func mappingServer(t *testing.T, payloads ...string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		idx := int(n) - 1
		if idx >= len(payloads) {
			idx = len(payloads) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"mappings": %q}`, payloads[idx])
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestResolve_CacheHitDoesNotRefetch(t *testing.T) {
	srv, calls := mappingServer(t, idFootball+":FOOTBALL;"+idLeague+":UEFA Champions League")
	r := NewResolver(srv.URL, srv.Client(), testLogger())

	for i := 0; i < 3; i++ {
		name, err := r.Resolve(context.Background(), idFootball)
		if err != nil {
			t.Fatalf("Resolve() error = %v, want nil", err)
		}
		if name != "FOOTBALL" {
			t.Fatalf("Resolve() = %q, want FOOTBALL", name)
		}
	}
	// 同一次拉取带回的其他绑定也已缓存
	if name, err := r.Resolve(context.Background(), idLeague); err != nil || name != "UEFA Champions League" {
		t.Fatalf("Resolve() = %q, %v", name, err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

func TestResolve_InvalidID(t *testing.T) {
	srv, calls := mappingServer(t, idFootball+":FOOTBALL")
	r := NewResolver(srv.URL, srv.Client(), testLogger())

	_, err := r.Resolve(context.Background(), "not-a-uuid")
	if !errors.Is(err, model.ErrInvalidID) {
		t.Errorf("Resolve() error = %v, want ErrInvalidID", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("upstream calls = %d, want 0", got)
	}
}

func TestResolve_NotFoundAfterRefresh(t *testing.T) {
	srv, calls := mappingServer(t, idFootball+":FOOTBALL")
	r := NewResolver(srv.URL, srv.Client(), testLogger())

	_, err := r.Resolve(context.Background(), idMissing)
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("Resolve() error = %v, want ErrNotFound", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}

// 第二次拉取中出现已绑定的id（即使名称相同）必须拒绝
func TestResolve_DuplicateBindingAcrossFetches(t *testing.T) {
	srv, _ := mappingServer(t,
		idFootball+":FOOTBALL",
		idFootball+":FOOTBALL RENAMED;"+idLive+":LIVE",
	)
	r := NewResolver(srv.URL, srv.Client(), testLogger())

	if _, err := r.Resolve(context.Background(), idFootball); err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	// 无关的未命中触发第二次拉取，其中重复绑定 idFootball
	_, err := r.Resolve(context.Background(), idLive)
	if !errors.Is(err, model.ErrDuplicateBinding) {
		t.Errorf("Resolve() error = %v, want ErrDuplicateBinding", err)
	}
	// 校验失败的载荷整体拒绝，idLive 不得进入缓存
	if r.Size() != 1 {
		t.Errorf("Size() = %d, want 1", r.Size())
	}
}

func TestResolve_PayloadGrammar(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{"empty segments skipped", ";;" + idFootball + ":FOOTBALL;;", nil},
		{"name with colon kept whole", idFootball + ":FOOTBALL:EXTRA", nil},
		{"entry without name", idFootball + ":", model.ErrInvalidEntry},
		{"entry without colon", idFootball, model.ErrInvalidEntry},
		{"entry with blank id", " :FOOTBALL", model.ErrInvalidEntry},
		{"non-uuid id", "abc:FOOTBALL", model.ErrInvalidID},
		{"only separators", ";;;", model.ErrNoEntries},
		{"duplicate inside one fetch", idFootball + ":A;" + idFootball + ":A", model.ErrDuplicateBinding},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := mappingServer(t, tt.payload)
			r := NewResolver(srv.URL, srv.Client(), testLogger())
			_, err := r.Resolve(context.Background(), idFootball)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Resolve() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Resolve() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolve_InvalidResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty mappings field", `{"mappings": ""}`},
		{"missing mappings field", `{}`},
		{"not json", `mappings`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()
			r := NewResolver(srv.URL, srv.Client(), testLogger())
			_, err := r.Resolve(context.Background(), idFootball)
			if !errors.Is(err, model.ErrInvalidResponse) {
				t.Errorf("Resolve() error = %v, want ErrInvalidResponse", err)
			}
		})
	}
}

func TestResolve_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	r := NewResolver(srv.URL, srv.Client(), testLogger())
	_, err := r.Resolve(context.Background(), idFootball)
	if !errors.Is(err, model.ErrFetchFailed) {
		t.Errorf("Resolve() error = %v, want ErrFetchFailed", err)
	}
}

// 并发未命中必须汇聚到同一次上游拉取
func TestResolve_ConcurrentMissesSingleFetch(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		fmt.Fprintf(w, `{"mappings": %q}`, idFootball+":FOOTBALL;"+idLive+":LIVE")
	}))
	defer srv.Close()
	r := NewResolver(srv.URL, srv.Client(), testLogger())

	var wg sync.WaitGroup
	errs := make([]error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			id := idFootball
			if n%2 == 0 {
				id = idLive
			}
			_, errs[n] = r.Resolve(context.Background(), id)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("goroutine %d: Resolve() error = %v", i, err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
}
