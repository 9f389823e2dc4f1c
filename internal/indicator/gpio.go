package indicator

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultGPIORoot is the sysfs GPIO class directory.
const DefaultGPIORoot = "/sys/class/gpio"

// #region pins
// Pins holds the BCM pin number of each role.
type Pins struct {
	LeftImagery   int `yaml:"left_imagery"`
	LeftMovement  int `yaml:"left_movement"`
	Fault         int `yaml:"fault"`
	RightMovement int `yaml:"right_movement"`
	RightImagery  int `yaml:"right_imagery"`
}

// DefaultPins returns the bench wiring: 17, 27, 22, 23, 24.
func DefaultPins() Pins {
	return Pins{
		LeftImagery:   17,
		LeftMovement:  27,
		Fault:         22,
		RightMovement: 23,
		RightImagery:  24,
	}
}

// ByRole returns the pin for each role.
func (p Pins) ByRole() map[Role]int {
	return map[Role]int{
		LeftImagery:   p.LeftImagery,
		LeftMovement:  p.LeftMovement,
		Fault:         p.Fault,
		RightMovement: p.RightMovement,
		RightImagery:  p.RightImagery,
	}
}

// #endregion pins

// #region sysfs-line
// SysfsLine drives one pin through the sysfs GPIO interface.
type SysfsLine struct {
	root     string
	pin      int
	exported bool
}

// OpenSysfsLine exports the pin if needed and configures it as an output,
// initially low.
func OpenSysfsLine(root string, pin int) (*SysfsLine, error) {
	l := &SysfsLine{root: root, pin: pin}
	dir := l.dir()
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err := writeFile(filepath.Join(root, "export"), strconv.Itoa(pin)); err != nil {
			return nil, fmt.Errorf("export gpio%d: %w", pin, err)
		}
		if _, err := os.Stat(dir); err != nil {
			return nil, fmt.Errorf("gpio%d not exported: %w", pin, err)
		}
		l.exported = true
	}
	if err := writeFile(filepath.Join(dir, "direction"), "out"); err != nil {
		return nil, fmt.Errorf("direction gpio%d: %w", pin, err)
	}
	if err := l.Set(false); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SysfsLine) dir() string {
	return filepath.Join(l.root, "gpio"+strconv.Itoa(l.pin))
}

// Set writes the pin value.
func (l *SysfsLine) Set(on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	if err := writeFile(filepath.Join(l.dir(), "value"), v); err != nil {
		return fmt.Errorf("write gpio%d: %w", l.pin, err)
	}
	return nil
}

// Close drives the pin low and unexports it if this line exported it.
func (l *SysfsLine) Close() error {
	err := l.Set(false)
	if l.exported {
		if uerr := writeFile(filepath.Join(l.root, "unexport"), strconv.Itoa(l.pin)); uerr != nil {
			err = errors.Join(err, fmt.Errorf("unexport gpio%d: %w", l.pin, uerr))
		}
	}
	return err
}

func writeFile(path, value string) error {
	return os.WriteFile(path, []byte(value), 0o644)
}

// #endregion sysfs-line

// #region open-panel
// OpenGPIOPanel opens a sysfs line for every role. Lines opened before a
// failure are released.
func OpenGPIOPanel(root string, pins Pins, logger *slog.Logger) (*Panel, error) {
	if root == "" {
		root = DefaultGPIORoot
	}
	lines := make(map[Role]Line, len(Roles))
	for _, role := range Roles {
		line, err := OpenSysfsLine(root, pins.ByRole()[role])
		if err != nil {
			for _, l := range lines {
				l.Close()
			}
			return nil, fmt.Errorf("open %s indicator: %w", role, err)
		}
		lines[role] = line
	}
	return NewPanel(lines, logger), nil
}

// #endregion open-panel
