package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"testing"
	"time"

	e "github.com/gartstein/companyconsole/internal/company/errors"
	"github.com/gartstein/companyconsole/internal/company/models"
	"github.com/gartstein/companyconsole/internal/config"
	"github.com/gartstein/companyconsole/internal/console/controller"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// memGateway is an in-memory companies endpoint.
type memGateway struct {
	mu        sync.Mutex
	companies []models.Company
	nextID    int
	listErr   error
	creates   int
	updates   []models.CompanyUpdate
}

func newMemGateway(companies ...models.Company) *memGateway {
	return &memGateway{companies: companies, nextID: len(companies) + 1}
}

func (g *memGateway) List(context.Context) ([]models.Company, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]models.Company{}, g.companies...), nil
}

func (g *memGateway) Create(_ context.Context, p models.CompanyCreate) (*models.Company, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.creates++
	c := models.Company{
		ID:       strconv.Itoa(g.nextID),
		Name:     p.Name,
		Document: p.Document,
		Address:  p.Address,
		IsActive: p.IsActive == nil || *p.IsActive,
	}
	g.nextID++
	g.companies = append(g.companies, c)
	return &c, nil
}

func (g *memGateway) Update(_ context.Context, id string, p models.CompanyUpdate) (*models.Company, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.updates = append(g.updates, p)
	for i := range g.companies {
		c := &g.companies[i]
		if c.ID != id {
			continue
		}
		if p.Name != nil {
			c.Name = *p.Name
		}
		if p.Document != nil {
			c.Document = *p.Document
		}
		if p.Address != nil {
			c.Address = *p.Address
		}
		if p.IsActive != nil {
			c.IsActive = *p.IsActive
		}
		updated := *c
		return &updated, nil
	}
	return nil, &e.RemoteError{StatusCode: http.StatusNotFound, Message: "Company not found"}
}

func (g *memGateway) Remove(_ context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, c := range g.companies {
		if c.ID == id {
			g.companies = append(g.companies[:i], g.companies[i+1:]...)
			return nil
		}
	}
	return &e.RemoteError{StatusCode: http.StatusNotFound, Message: "Company not found"}
}

// stubPrompter answers prompts with canned values.
type stubPrompter struct {
	edit    func(fields *CompanyFields)
	confirm bool
	asked   []string
}

func (p *stubPrompter) EditCompany(title string, fields *CompanyFields) error {
	p.asked = append(p.asked, title)
	if p.edit == nil {
		return errors.New("unexpected form")
	}
	p.edit(fields)
	return nil
}

func (p *stubPrompter) Confirm(question string) (bool, error) {
	p.asked = append(p.asked, question)
	return p.confirm, nil
}

var (
	acme   = models.Company{ID: "1", Name: "Acme", Document: "123", IsActive: true}
	globex = models.Company{ID: "2", Name: "Globex", Document: "456", IsActive: false}
)

func execute(t *testing.T, ctx context.Context, gw controller.Gateway, p Prompter, args ...string) (string, error) {
	t.Helper()
	if p == nil {
		p = &stubPrompter{}
	}
	root := NewRootCommand(func(config.ConsoleConfig) (*controller.CompanyConsole, func(), error) {
		return controller.NewCompanyConsole(gw, zaptest.NewLogger(t)), nil, nil
	}, p)

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return out.String(), err
}

func TestList(t *testing.T) {
	tests := []struct {
		name    string
		gw      *memGateway
		want    []string
		wantErr bool
	}{
		{
			name: "table",
			gw:   newMemGateway(acme, globex),
			want: []string{"NAME", "Acme", "123", "Active", "Globex", "Inactive"},
		},
		{
			name: "empty",
			gw:   newMemGateway(),
			want: []string{"no companies found"},
		},
		{
			name:    "failure",
			gw:      &memGateway{listErr: &e.TransportError{Op: "list companies", Err: errors.New("connection refused")}},
			want:    []string{"failed to load companies", "connection refused"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, context.Background(), tt.gw, nil, "list")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			for _, s := range tt.want {
				assert.Contains(t, out, s)
			}
		})
	}
}

func TestCreate_WithFlags(t *testing.T) {
	gw := newMemGateway()
	p := &stubPrompter{}

	out, err := execute(t, context.Background(), gw, p, "create", "--name", "Acme", "--document", "123", "--inactive")
	require.NoError(t, err)

	assert.Contains(t, out, "company created")
	assert.Contains(t, out, "Inactive")
	assert.Empty(t, p.asked)
	require.Len(t, gw.companies, 1)
	assert.False(t, gw.companies[0].IsActive)
}

func TestCreate_PromptsWithoutFlags(t *testing.T) {
	gw := newMemGateway()
	p := &stubPrompter{edit: func(f *CompanyFields) {
		assert.True(t, f.IsActive)
		f.Name = "Acme"
		f.Document = "123"
	}}

	out, err := execute(t, context.Background(), gw, p, "create")
	require.NoError(t, err)

	assert.Equal(t, []string{"New company"}, p.asked)
	assert.Contains(t, out, "Acme")
	require.Len(t, gw.companies, 1)
	assert.True(t, gw.companies[0].IsActive)
}

func TestCreate_InvalidInputNeverReachesGateway(t *testing.T) {
	gw := newMemGateway()

	_, err := execute(t, context.Background(), gw, nil, "create", "--name", "", "--document", "1")

	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrInvalidInput)
	assert.Contains(t, err.Error(), "name is required")
	assert.Zero(t, gw.creates)
}

func TestEdit_SendsOnlyGivenFlags(t *testing.T) {
	gw := newMemGateway(acme)

	out, err := execute(t, context.Background(), gw, nil, "edit", "1", "--active=false")
	require.NoError(t, err)

	assert.Contains(t, out, "company updated")
	require.Len(t, gw.updates, 1)
	assert.Equal(t, models.CompanyUpdate{IsActive: models.Ptr(false)}, gw.updates[0])
}

func TestEdit_PromptSendsChangedFields(t *testing.T) {
	gw := newMemGateway(acme)
	p := &stubPrompter{edit: func(f *CompanyFields) {
		assert.Equal(t, "Acme", f.Name)
		f.Name = "Acme Corp"
	}}

	_, err := execute(t, context.Background(), gw, p, "edit", "1")
	require.NoError(t, err)

	require.Len(t, gw.updates, 1)
	assert.Equal(t, models.CompanyUpdate{Name: models.Ptr("Acme Corp")}, gw.updates[0])
}

func TestEdit_NothingChanged(t *testing.T) {
	gw := newMemGateway(acme)
	p := &stubPrompter{edit: func(*CompanyFields) {}}

	out, err := execute(t, context.Background(), gw, p, "edit", "1")
	require.NoError(t, err)

	assert.Contains(t, out, "nothing to update")
	assert.Empty(t, gw.updates)
}

func TestEdit_UnknownID(t *testing.T) {
	gw := newMemGateway(acme)

	_, err := execute(t, context.Background(), gw, nil, "edit", "42", "--name", "x")

	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.Empty(t, gw.updates)
}

func TestDelete(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		confirm   bool
		wantOut   string
		wantAsked int
		wantLeft  int
	}{
		{name: "confirmed", args: []string{"delete", "1"}, confirm: true, wantOut: "company deleted", wantAsked: 1, wantLeft: 0},
		{name: "declined", args: []string{"delete", "1"}, confirm: false, wantOut: "aborted", wantAsked: 1, wantLeft: 1},
		{name: "yes flag", args: []string{"delete", "1", "--yes"}, wantOut: "company deleted", wantAsked: 0, wantLeft: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newMemGateway(acme)
			p := &stubPrompter{confirm: tt.confirm}

			out, err := execute(t, context.Background(), gw, p, tt.args...)
			require.NoError(t, err)

			assert.Contains(t, out, tt.wantOut)
			assert.Len(t, p.asked, tt.wantAsked)
			assert.Len(t, gw.companies, tt.wantLeft)
		})
	}
}

func TestDelete_NotFound(t *testing.T) {
	_, err := execute(t, context.Background(), newMemGateway(), nil, "delete", "1", "--yes")

	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestReleaseRunsAfterCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "success", args: []string{"list"}},
		{name: "failure", args: []string{"delete", "42", "--yes"}, wantErr: e.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var released int
			root := NewRootCommand(func(config.ConsoleConfig) (*controller.CompanyConsole, func(), error) {
				return controller.NewCompanyConsole(newMemGateway(acme), zaptest.NewLogger(t)), func() { released++ }, nil
			}, &stubPrompter{})
			root.SetOut(io.Discard)
			root.SetArgs(tt.args)

			err := root.ExecuteContext(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, 1, released)
		})
	}
}

func TestWatch_RendersUntilCancelled(t *testing.T) {
	gw := newMemGateway(acme)
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	out, err := execute(t, ctx, gw, nil, "watch", "--refresh", "50ms")
	require.NoError(t, err)

	assert.Contains(t, out, "Acme")
	assert.Contains(t, out, "---")
}

func TestRenderState(t *testing.T) {
	tests := []struct {
		name  string
		state controller.CompaniesState
		want  string
	}{
		{name: "loading", state: controller.CompaniesState{IsLoading: true}, want: "loading..."},
		{name: "error", state: controller.CompaniesState{Err: errors.New("boom")}, want: "failed to load companies: boom"},
		{name: "refreshing", state: controller.CompaniesState{Companies: []models.Company{acme}, IsLoading: true}, want: "refreshing..."},
		{
			name:  "error keeps data",
			state: controller.CompaniesState{Companies: []models.Company{acme}, Err: errors.New("boom")},
			want:  "refresh failed, showing previous data: boom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			renderState(&buf, tt.state)
			assert.Contains(t, buf.String(), tt.want)
		})
	}
}
