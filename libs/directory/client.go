package directory

import (
	"context"
	"sync"
	"time"

	"github.com/teampro-ai/teampro/libs/facility"
	"github.com/teampro-ai/teampro/libs/grpcx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const defaultNameTTL = 5 * time.Minute

type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
	nameTTL time.Duration
	now     func() time.Time

	mu    sync.Mutex
	names map[string]cachedName
}

type cachedName struct {
	name    string
	expires time.Time
}

func NewClient(addr string) (*Client, error) {
	conn, err := grpcx.Dial(addr, grpcx.DialOptions{JSON: true})
	if err != nil {
		return nil, err
	}
	return &Client{
		conn:    conn,
		timeout: 3 * time.Second,
		nameTTL: defaultNameTTL,
		now:     time.Now,
		names:   map[string]cachedName{},
	}, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) GetFacility(ctx context.Context, id string) (facility.Facility, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var out GetFacilityResponse
	if err := c.conn.Invoke(ctx, methodGetFacility, &GetFacilityRequest{FacilityID: id}, &out); err != nil {
		return facility.Facility{}, err
	}
	return out.Facility, nil
}

func (c *Client) ListFacilities(ctx context.Context, includeInactive bool) ([]facility.Facility, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var out ListFacilitiesResponse
	if err := c.conn.Invoke(ctx, methodListFacilities, &ListFacilitiesRequest{IncludeInactive: includeInactive}, &out); err != nil {
		return nil, err
	}
	return out.Facilities, nil
}

// FacilityName resolves a display name, cached for a few minutes. Lookup
// failures fall back to the id.
func (c *Client) FacilityName(ctx context.Context, id string) string {
	c.mu.Lock()
	if n, ok := c.names[id]; ok && c.now().Before(n.expires) {
		c.mu.Unlock()
		return n.name
	}
	c.mu.Unlock()

	f, err := c.GetFacility(ctx, id)
	if err != nil || f.Name == "" {
		return id
	}
	c.mu.Lock()
	c.names[id] = cachedName{name: f.Name, expires: c.now().Add(c.nameTTL)}
	c.mu.Unlock()
	return f.Name
}

func IsNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}
