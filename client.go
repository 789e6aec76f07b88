package sntp

import (
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultVersion = 4
	DefaultTimeout = 500 * time.Millisecond
)

// Client issues single SNTP queries to one server. Its configuration is
// fixed at construction; concurrent queries share nothing but the
// RandomSource.
type Client struct {
	host           string
	hostHasPort    bool
	addr           string
	version        uint8
	sendTimeout    time.Duration
	receiveTimeout time.Duration
	random         RandomSource
	strict         bool
	ttl            int
	dialer         Dialer
	clock          Clock
	stat           *Metrics
}

type Option func(c *Client) error

// WithVersion selects the protocol version, 3 or 4.
func WithVersion(v int) Option {
	return func(c *Client) error {
		if v != 3 && v != 4 {
			return fmt.Errorf("%w: got %d", ErrInvalidVersion, v)
		}
		c.version = uint8(v)
		return nil
	}
}

// WithPort overrides port 123 when host does not name one.
func WithPort(port int) Option {
	return func(c *Client) error {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("sntp: port %d: %w", port, ErrOutOfRange)
		}
		if !c.hostHasPort {
			c.addr = net.JoinHostPort(c.host, strconv.Itoa(port))
		}
		return nil
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.sendTimeout = d
		return nil
	}
}

func WithReceiveTimeout(d time.Duration) Option {
	return func(c *Client) error {
		c.receiveTimeout = d
		return nil
	}
}

// WithRandomSource replaces the crypto/rand backed source used to
// randomize the transmit timestamp.
func WithRandomSource(r RandomSource) Option {
	return func(c *Client) error {
		if r == nil {
			r = CryptoRandom{}
		}
		c.random = r
		return nil
	}
}

// WithStrictValidation also rejects replies whose version differs from the
// request.
func WithStrictValidation(strict bool) Option {
	return func(c *Client) error {
		c.strict = strict
		return nil
	}
}

func WithDialer(d Dialer) Option {
	return func(c *Client) error {
		if d == nil {
			d = &net.Dialer{}
		}
		c.dialer = d
		return nil
	}
}

func WithClock(clk Clock) Option {
	return func(c *Client) error {
		if clk == nil {
			clk = systemClock{}
		}
		c.clock = clk
		return nil
	}
}

// WithTTL sets the IP TTL (hop limit for IPv6) of query datagrams.
func WithTTL(ttl int) Option {
	return func(c *Client) error {
		if ttl < 0 || ttl > 255 {
			return fmt.Errorf("sntp: ttl %d: %w", ttl, ErrOutOfRange)
		}
		c.ttl = ttl
		return nil
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) error {
		c.stat = m
		return nil
	}
}

// NewClient creates a client for host, which may carry a port.
func NewClient(host string, opts ...Option) (c *Client, err error) {
	c = &Client{
		host:           host,
		version:        DefaultVersion,
		sendTimeout:    DefaultTimeout,
		receiveTimeout: DefaultTimeout,
		random:         CryptoRandom{},
		dialer:         &net.Dialer{},
		clock:          systemClock{},
	}
	if h, _, splitErr := net.SplitHostPort(host); splitErr == nil {
		c.host = h
		c.hostHasPort = true
		c.addr = host
	} else {
		c.addr = net.JoinHostPort(host, strconv.Itoa(Port))
	}

	for _, opt := range opts {
		if err = opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Client) Addr() string   { return c.addr }
func (c *Client) Version() uint8 { return c.version }
func (c *Client) Strict() bool   { return c.strict }

// Query runs one blocking exchange bounded by the configured timeouts.
func (c *Client) Query() (*Response, error) {
	return c.QueryContext(context.Background())
}

// QueryContext runs one exchange. Cancelling ctx aborts it while dialing,
// sending or receiving.
func (c *Client) QueryContext(ctx context.Context) (resp *Response, err error) {
	var (
		conn net.Conn
		n    int
		p    *Packet
	)

	watch := c.clock.Now()
	defer func() {
		c.stat.observe(c.addr, conn, resp, err, c.clock.Now().Sub(watch))
		if err != nil {
			logger().Warn("query failed", zap.String("server", c.addr), zap.Error(err))
		}
	}()

	logger().Debug("query", zap.String("server", c.addr), zap.Uint8("version", c.version))
	conn, err = c.dial(ctx)
	if err != nil {
		return
	}
	defer conn.Close()

	start := c.clock.Now()
	requestTime := start.UTC()
	requestTS := FromTime(requestTime).RandomizeSubMilliseconds(c.random)
	req := (&Packet{
		Leap:         LeapNoWarning,
		Version:      c.version,
		Mode:         ModeClient,
		TransmitTime: requestTS,
	}).Bytes()

	n, err = c.exchange(ctx, conn, req)
	if err != nil {
		return
	}
	end := c.clock.Now()
	if debug {
		logger().Debug("raw reply", zap.String("server", c.addr), zap.String("hex", hex.EncodeToString(req[:n])))
	}
	if n < PacketSize {
		err = &ShortPacketError{Len: n, Need: PacketSize}
		return
	}

	responseTS := FromTime(requestTime.Add(end.Sub(start)))

	p, err = DecodePacket(req[:n])
	if err != nil {
		return
	}
	p.DestinationTime = responseTS
	logger().Debug("reply", zap.String("server", c.addr), zap.Object("packet", packetMarshaler{p}))

	if err = c.validate(p, requestTS); err != nil {
		return
	}
	return newResponse(p, requestTS)
}

// Result is delivered by QueryAsync.
type Result struct {
	Response *Response
	Err      error
}

// QueryAsync runs QueryContext on its own goroutine. The channel receives
// exactly one Result and is then closed.
func (c *Client) QueryAsync(ctx context.Context) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		defer close(ch)
		resp, err := c.QueryContext(ctx)
		ch <- Result{Response: resp, Err: err}
	}()
	return ch
}

var oneSecond32 = NewDuration32(1, 0)

func (c *Client) validate(p *Packet, request Timestamp64) error {
	if p.Mode != ModeServer {
		return badReply("NTP mode is not Server (%s)", p.Mode)
	}

	switch p.Leap {
	case LeapNoWarning, LeapPositiveLeapSecond, LeapNegativeLeapSecond:
	default:
		return badReply("server is not synchronized (leap indicator %s)", p.Leap)
	}

	switch p.Stratum {
	case StratumPrimaryReference, StratumSecondaryReference:
	case StratumUnavailable:
		e := badReply("server stratum is unavailable")
		if code, ok := p.KissCode(); ok {
			e.KissCode = code
			e.Reason = fmt.Sprintf("kiss-o'-death %s: %s", code, kissCodes[code])
		}
		return e
	default:
		return badReply("server stratum is %s (%d)", p.Stratum, p.RawStratum)
	}

	if p.RootDelay.Compare(oneSecond32) >= 0 {
		return badReply("root delay %s >= 1s", p.RootDelay)
	}
	if p.RootDispersion.Compare(oneSecond32) >= 0 {
		return badReply("root dispersion %s >= 1s", p.RootDispersion)
	}

	if p.ReceiveTime.IsZero() {
		return badReply("Receive Timestamp = 0")
	}
	if p.TransmitTime.IsZero() {
		return badReply("Transmit Timestamp = 0")
	}
	if p.TransmitTime.Before(p.ReceiveTime) {
		return badReply("Transmit Timestamp %s < Receive Timestamp %s", p.TransmitTime, p.ReceiveTime)
	}

	if c.strict && p.Version != c.version {
		return badReply("version %d does not match request version %d", p.Version, c.version)
	}

	if !p.OriginTime.Equal(request) {
		return badReply("Originate Timestamp %s does not match request %s", p.OriginTime, request)
	}
	return nil
}
