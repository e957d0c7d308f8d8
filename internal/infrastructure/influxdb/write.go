package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// WriteRegionPressure records one sensor region's aggregate pressure for
// a cycle. Non-blocking; batched and sent asynchronously.
//
// Example:
//
//	client.WriteRegionPressure("palm", 1234, 18)
func (c *Client) WriteRegionPressure(region string, totalPressure uint64, activeCells int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"tactile",
		map[string]string{
			"region": region,
		},
		map[string]interface{}{
			"total_pressure": float64(totalPressure),
			"active_cells":   activeCells,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteJointAngle records one joint's device-reported angle.
func (c *Client) WriteJointAngle(joint string, angle int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"joints",
		map[string]string{
			"joint": joint,
		},
		map[string]interface{}{
			"angle": angle,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteShapeEstimate records a classification result.
func (c *Client) WriteShapeEstimate(kind string, confidence float64, contactCount int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"shape",
		map[string]string{
			"kind": kind,
		},
		map[string]interface{}{
			"confidence": confidence,
			"contacts":   contactCount,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and
// fields. Use for measurements that don't fit the helpers.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp,
// for data that is not from "now".
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
