package sntp

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var pkgLogger atomic.Pointer[zap.Logger]

func init() {
	pkgLogger.Store(zap.NewNop())
}

// SetLogger routes package logging to l. A nil l silences it.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	pkgLogger.Store(l.Named("sntp"))
}

func logger() *zap.Logger {
	return pkgLogger.Load()
}

type timestampMarshaler struct {
	t Timestamp64
}

func (m timestampMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint32("Seconds", m.t.SecondOfEra())
	enc.AddUint32("Fraction", m.t.FractionOfSecond())
	return nil
}

type packetMarshaler struct {
	p *Packet
}

func (m packetMarshaler) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("Leap", m.p.Leap.String())
	enc.AddUint8("Version", m.p.Version)
	enc.AddString("Mode", m.p.Mode.String())
	enc.AddUint8("Stratum", m.p.RawStratum)
	enc.AddInt8("Poll", m.p.Poll)
	enc.AddInt8("Precision", m.p.Precision)
	enc.AddString("RootDelay", m.p.RootDelay.String())
	enc.AddString("RootDispersion", m.p.RootDispersion.String())
	enc.AddUint32("ReferenceID", m.p.ReferenceIDUint32())
	if err := enc.AddObject("ReferenceTime", timestampMarshaler{m.p.ReferenceTime}); err != nil {
		return err
	}
	if err := enc.AddObject("OriginTime", timestampMarshaler{m.p.OriginTime}); err != nil {
		return err
	}
	if err := enc.AddObject("ReceiveTime", timestampMarshaler{m.p.ReceiveTime}); err != nil {
		return err
	}
	if err := enc.AddObject("TransmitTime", timestampMarshaler{m.p.TransmitTime}); err != nil {
		return err
	}
	return enc.AddObject("DestinationTime", timestampMarshaler{m.p.DestinationTime})
}
