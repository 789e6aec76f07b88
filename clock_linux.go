//go:build linux && (amd64 || arm64)

package sntp

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// AdjustClock corrects the system clock by offset. Offsets under
// MaxSlew are slewed through the kernel PLL; larger ones are stepped
// when force is set and refused otherwise. Requires CAP_SYS_TIME.
func AdjustClock(offset time.Duration, leap LeapIndicator, force bool) (err error) {
	pending, err := pendingOffset()
	if err != nil {
		return
	}
	d := offset + pending
	logger().Debug("adjust clock",
		zap.Duration("offset", offset), zap.Duration("pending", pending), zap.Bool("force", force))

	if absDuration(d) >= MaxSlew {
		if !force {
			return fmt.Errorf("%w: %s", ErrOffsetTooLarge, d)
		}
		logger().Info("stepping clock", zap.Duration("offset", d))
		tv := unix.NsecToTimeval(time.Now().Add(d).UnixNano())
		return unix.Settimeofday(&tv)
	}

	tmx := &unix.Timex{
		Modes:    adjNANO | adjOFFSET | adjMAXERROR | adjESTERROR | adjTIMECONST | adjSTATUS,
		Offset:   d.Nanoseconds(),
		Status:   staPLL,
		Constant: timeConstant(d),
	}
	switch leap {
	case LeapPositiveLeapSecond:
		tmx.Status |= staINS
	case LeapNegativeLeapSecond:
		tmx.Status |= staDEL
	}

	rc, err := unix.Adjtimex(tmx)
	if err != nil {
		return
	}
	if rc == timeERROR {
		logger().Warn("kernel clock unsynchronized", zap.String("status", statusToString(tmx.Status)))
	}
	return
}

// smaller offsets get a tighter loop
func timeConstant(d time.Duration) int64 {
	con := 6 - int64(absDuration(d)/(20*time.Millisecond))
	if con < 2 {
		con = 2
	}
	return con
}

// pendingOffset is the part of a previous slew the kernel has not yet
// applied.
func pendingOffset() (offset time.Duration, err error) {
	tmx := &unix.Timex{Status: staNANO}
	if _, err = unix.Adjtimex(tmx); err != nil {
		return
	}
	offset = time.Duration(tmx.Offset)
	if tmx.Status&staNANO == 0 {
		offset *= time.Microsecond
	}
	return
}

const (
	adjOFFSET    = 0x0001 /* time offset */
	adjMAXERROR  = 0x0004 /* maximum time error */
	adjESTERROR  = 0x0008 /* estimated time error */
	adjSTATUS    = 0x0010 /* clock status */
	adjTIMECONST = 0x0020 /* pll time constant */
	adjNANO      = 0x2000 /* select nanosecond resolution */

	staPLL      = 0x0001 /* enable PLL updates (rw) */
	staINS      = 0x0010 /* insert leap (rw) */
	staDEL      = 0x0020 /* delete leap (rw) */
	staUNSYNC   = 0x0040 /* clock unsynchronized (rw) */
	staFREQHOLD = 0x0080 /* hold frequency (rw) */
	staCLOCKERR = 0x1000 /* clock hardware fault (ro) */
	staNANO     = 0x2000 /* resolution (0 = us, 1 = ns) (ro) */

	timeERROR = 5 /* clock not synchronized */
)

func statusToString(s int32) string {
	buf := []string{}
	for _, f := range []struct {
		bit  int32
		name string
	}{
		{staPLL, "staPLL"},
		{staINS, "staINS"},
		{staDEL, "staDEL"},
		{staUNSYNC, "staUNSYNC"},
		{staFREQHOLD, "staFREQHOLD"},
		{staCLOCKERR, "staCLOCKERR"},
		{staNANO, "staNANO"},
	} {
		if s&f.bit != 0 {
			buf = append(buf, f.name)
		}
	}
	return strings.Join(buf, ", ")
}
