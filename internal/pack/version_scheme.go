package pack

import (
	"fmt"
	"time"
)

const (
	flowVersionTemplateConstant = "%d.%d.%d"
)

// BuildClock supplies the timestamp used for version stamping.
type BuildClock func() time.Time

// FlowVersion derives the flow calendar version (year.month.day, no zero padding) from the build time.
func FlowVersion(buildTime time.Time) string {
	year, month, day := buildTime.Date()
	return fmt.Sprintf(flowVersionTemplateConstant, year, int(month), day)
}
