package sensor

// Quantity names one monitored field of a Reading.
type Quantity string

const (
	Temperature Quantity = "temperature"
	Humidity    Quantity = "humidity"
	AirQuality  Quantity = "air_quality"
	EnergyUsage Quantity = "energy_usage"
	WaterUsage  Quantity = "water_usage"
	LightLevel  Quantity = "light_level"
)

// AllQuantities lists every value field of a Reading in display order.
var AllQuantities = []Quantity{Temperature, Humidity, AirQuality, EnergyUsage, WaterUsage, LightLevel}

// Monitored lists the quantities that get a status classification and a
// chart series.
var Monitored = []Quantity{Temperature, Humidity, AirQuality, EnergyUsage}

// quantityInfo maps each quantity to its display label and unit.
var quantityInfo = []struct {
	q     Quantity
	label string
	unit  string
}{
	{Temperature, "Temperature", "°C"},
	{Humidity, "Humidity", "%"},
	{AirQuality, "Air Quality", ""},
	{EnergyUsage, "Energy", "W"},
	{WaterUsage, "Water", "L"},
	{LightLevel, "Light", "lux"},
}

// Label returns a human-readable name for q.
func (q Quantity) Label() string {
	for _, entry := range quantityInfo {
		if entry.q == q {
			return entry.label
		}
	}
	return "Sensor"
}

// Unit returns the display unit for q, or "" when it is dimensionless.
func (q Quantity) Unit() string {
	for _, entry := range quantityInfo {
		if entry.q == q {
			return entry.unit
		}
	}
	return ""
}
