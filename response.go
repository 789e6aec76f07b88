package sntp

import (
	"fmt"
	"time"
)

// ServerInfo describes the server as reported in its reply.
type ServerInfo struct {
	Leap       LeapIndicator
	Version    uint8
	Stratum    Stratum
	RawStratum uint8
	Poll       int8
	// PollInterval is 2^Poll seconds.
	PollInterval   time.Duration
	Precision      int8
	RootDelay      Duration32
	RootDispersion Duration32
	ReferenceID    uint32
	// ReferenceIdentifier is the decoded reference id; HasReferenceIdentifier
	// is false when the stratum gives it no meaning.
	ReferenceIdentifier    string
	HasReferenceIdentifier bool
	ReferenceTime          Timestamp64
}

// TimeInfo holds the four protocol timestamps and what is derived from
// them.
type TimeInfo struct {
	RequestTime  Timestamp64 // T1
	ReceiveTime  Timestamp64 // T2
	TransmitTime Timestamp64 // T3
	ResponseTime Timestamp64 // T4

	// RTT is (T4-T1) - (T3-T2).
	RTT Duration64
	// ClockOffset is ((T2-T1) + (T3-T4)) / 2.
	ClockOffset Duration64
	// RootDistance is (root delay + RTT)/2 + root dispersion.
	RootDistance Duration64
}

type Response struct {
	Server ServerInfo
	Timing TimeInfo
}

func newResponse(p *Packet, request Timestamp64) (resp *Response, err error) {
	timing, err := newTimeInfo(request, p.ReceiveTime, p.TransmitTime, p.DestinationTime)
	if err != nil {
		return
	}

	if timing.RootDistance, err = rootDistance(p.RootDelay, p.RootDispersion, timing.RTT); err != nil {
		return
	}

	refID, hasRefID := p.ReferenceIdentifier()
	resp = &Response{
		Server: ServerInfo{
			Leap:                   p.Leap,
			Version:                p.Version,
			Stratum:                p.Stratum,
			RawStratum:             p.RawStratum,
			Poll:                   p.Poll,
			PollInterval:           p.PollInterval(),
			Precision:              p.Precision,
			RootDelay:              p.RootDelay,
			RootDispersion:         p.RootDispersion,
			ReferenceID:            p.ReferenceIDUint32(),
			ReferenceIdentifier:    refID,
			HasReferenceIdentifier: hasRefID,
			ReferenceTime:          p.ReferenceTime,
		},
		Timing: timing,
	}
	return
}

func newTimeInfo(t1, t2, t3, t4 Timestamp64) (ti TimeInfo, err error) {
	ti = TimeInfo{
		RequestTime:  t1,
		ReceiveTime:  t2,
		TransmitTime: t3,
		ResponseTime: t4,
	}
	if ti.RTT, err = roundTrip(t1, t2, t3, t4); err != nil {
		return
	}
	ti.ClockOffset, err = clockOffset(t1, t2, t3, t4)
	return
}

func roundTrip(t1, t2, t3, t4 Timestamp64) (d Duration64, err error) {
	total, err := t4.Sub(t1)
	if err != nil {
		return
	}
	server, err := t3.Sub(t2)
	if err != nil {
		return
	}
	return total.Sub(server)
}

func clockOffset(t1, t2, t3, t4 Timestamp64) (d Duration64, err error) {
	out, err := t2.Sub(t1)
	if err != nil {
		return
	}
	back, err := t3.Sub(t4)
	if err != nil {
		return
	}
	sum, err := out.Add(back)
	if err != nil {
		return
	}
	return sum.Div(2)
}

func rootDistance(delay, disp Duration32, rtt Duration64) (d Duration64, err error) {
	if d, err = delay.Duration64().Add(rtt); err != nil {
		return
	}
	if d, err = d.Div(2); err != nil {
		return
	}
	return d.Add(disp.Duration64())
}

// Now returns the local clock corrected by the measured offset.
func (r *Response) Now() time.Time {
	return time.Now().Add(r.Timing.ClockOffset.Duration())
}

func (r *Response) String() string {
	return fmt.Sprintf("stratum=%d ref=%q offset=%s rtt=%s root_delay=%s root_disp=%s",
		r.Server.RawStratum, r.Server.ReferenceIdentifier,
		r.Timing.ClockOffset, r.Timing.RTT,
		r.Server.RootDelay, r.Server.RootDispersion)
}
