package status

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nerrad567/gray-logic-netfsm/internal/netfsm"
)

// Color is an indicator colour.
type Color int

const (
	ColorOff Color = iota
	ColorGreen
	ColorBlue
	ColorAmber
	ColorCyan
	ColorRed
)

// String returns the colour name.
func (c Color) String() string {
	switch c {
	case ColorOff:
		return "off"
	case ColorGreen:
		return "green"
	case ColorBlue:
		return "blue"
	case ColorAmber:
		return "amber"
	case ColorCyan:
		return "cyan"
	case ColorRed:
		return "red"
	default:
		return "unknown"
	}
}

// RGB returns the channel intensities, 0-255.
func (c Color) RGB() (r, g, b uint8) {
	switch c {
	case ColorGreen:
		return 0, 255, 0
	case ColorBlue:
		return 0, 0, 255
	case ColorAmber:
		return 255, 191, 0
	case ColorCyan:
		return 0, 255, 255
	case ColorRed:
		return 255, 0, 0
	default:
		return 0, 0, 0
	}
}

// ColorFor returns the indicator colour for a state.
func ColorFor(state netfsm.State) Color {
	switch state {
	case netfsm.StateWifiConnecting, netfsm.StateWifiConnected:
		return ColorGreen
	case netfsm.StateMqttConnecting:
		return ColorBlue
	case netfsm.StateWifiFailedRetryable, netfsm.StateMqttFailedRetryable:
		return ColorAmber
	case netfsm.StateMqttConnected:
		return ColorCyan
	case netfsm.StateWifiFailedFatal, netfsm.StateMqttFailedFatal, netfsm.StateFatal:
		return ColorRed
	default:
		return ColorOff
	}
}

// Indicator shows a colour on the device.
type Indicator interface {
	Set(Color) error
}

// SysfsRGB drives three Linux LED class devices, one per channel, through
// their brightness files.
type SysfsRGB struct {
	red, green, blue string
}

// NewSysfsRGB takes the LED class directories
// (e.g. /sys/class/leds/rgb:red). An empty path disables that channel.
func NewSysfsRGB(red, green, blue string) *SysfsRGB {
	return &SysfsRGB{red: red, green: green, blue: blue}
}

// Set implements Indicator.
func (s *SysfsRGB) Set(c Color) error {
	r, g, b := c.RGB()
	return errors.Join(
		writeBrightness(s.red, r),
		writeBrightness(s.green, g),
		writeBrightness(s.blue, b),
	)
}

func writeBrightness(dir string, v uint8) error {
	if dir == "" {
		return nil
	}
	path := filepath.Join(dir, "brightness")
	if err := os.WriteFile(path, []byte(strconv.Itoa(int(v))), 0o644); err != nil { //nolint:gosec // sysfs attribute
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
