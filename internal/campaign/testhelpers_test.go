package campaign

import (
	"context"
	"errors"
	"sync"

	"github.com/dipta-sdd/campaignbay-sub002/internal/audit"
	"github.com/dipta-sdd/campaignbay-sub002/internal/catalog"
	"github.com/dipta-sdd/campaignbay-sub002/internal/events"
)

type fakeCatalog struct {
	products   map[int64]catalog.Product
	categories map[int64][]int64
	err        error
}

func (f *fakeCatalog) GetProductByID(_ context.Context, id int64) (catalog.Product, error) {
	if f.err != nil {
		return catalog.Product{}, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return catalog.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeCatalog) QueryProductIDsByCategory(_ context.Context, ids []int64) ([]int64, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []int64
	for _, id := range ids {
		out = append(out, f.categories[id]...)
	}
	return out, nil
}

type memStore struct {
	mu        sync.Mutex
	nextID    int64
	rows      map[int64]*Campaign
	listCalls int
	listErr   error
	usage     map[int64]int
}

func newMemStore() *memStore {
	return &memStore{rows: map[int64]*Campaign{}, usage: map[int64]int{}}
}

func (m *memStore) Get(_ context.Context, id int64) (*Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) List(_ context.Context) ([]*Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*Campaign, 0, len(m.rows))
	for id := int64(1); id <= m.nextID; id++ {
		if c, ok := m.rows[id]; ok {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memStore) Insert(_ context.Context, c *Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	c.ID = m.nextID
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memStore) Update(_ context.Context, c *Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	m.rows[c.ID] = &cp
	return nil
}

func (m *memStore) Delete(_ context.Context, id int64, _ bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memStore) SetUsageCount(_ context.Context, id int64, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.usage[id] = count
	if c, ok := m.rows[id]; ok {
		c.UsageCount = &count
	}
	return nil
}

type countingUsage struct {
	calls int
	count int
	err   error
}

func (c *countingUsage) CountCampaignOrders(context.Context, int64) (int, error) {
	c.calls++
	if c.err != nil {
		return 0, c.err
	}
	return c.count, nil
}

type captureEmitter struct {
	topics   []string
	payloads []events.CampaignPayload
}

func (c *captureEmitter) Emit(_ context.Context, topic, _ string, payload any) (events.Event, error) {
	c.topics = append(c.topics, topic)
	if p, ok := payload.(events.CampaignPayload); ok {
		c.payloads = append(c.payloads, p)
	}
	return events.Event{Topic: topic}, nil
}

type captureActivity struct {
	entries []audit.Activity
}

func (c *captureActivity) Record(_ context.Context, act audit.Activity) error {
	c.entries = append(c.entries, act)
	return nil
}

var errCatalogDown = errors.New("catalog down")

func strp(s string) *string { return &s }

func nump(s string) *Number {
	n := Number(s)
	return &n
}

func ids(values ...string) *[]Number {
	out := make([]Number, len(values))
	for i, v := range values {
		out[i] = Number(v)
	}
	return &out
}
