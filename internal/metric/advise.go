package metric

import "github.com/luki/homedash/internal/sensor"

// rule fires a suggestion when check holds for a reading.
type rule struct {
	check    func(sensor.Reading) bool
	message  string
	category sensor.Category
	priority sensor.Priority
}

var adviceRules = []rule{
	{
		check:    func(r sensor.Reading) bool { return r.Temperature > 26 },
		message:  "Temperature is high. Consider adjusting thermostat to save energy.",
		category: sensor.CategoryEnergy,
		priority: sensor.PriorityMedium,
	},
	{
		check:    func(r sensor.Reading) bool { return r.Humidity > 60 },
		message:  "High humidity detected. Turn on dehumidifier for comfort.",
		category: sensor.CategoryComfort,
		priority: sensor.PriorityLow,
	},
	{
		check:    func(r sensor.Reading) bool { return r.AirQuality < 70 },
		message:  "Air quality is poor. Consider opening windows or using air purifier.",
		category: sensor.CategoryHealth,
		priority: sensor.PriorityHigh,
	},
	{
		check:    func(r sensor.Reading) bool { return r.EnergyUsage > 1400 },
		message:  "High energy usage detected. Check if unnecessary devices are running.",
		category: sensor.CategoryEnergy,
		priority: sensor.PriorityMedium,
	},
}

// Advise returns the suggestions triggered by r, in rule order, stamped
// with the reading's timestamp.
func Advise(r sensor.Reading) []sensor.Suggestion {
	var out []sensor.Suggestion
	for _, rl := range adviceRules {
		if rl.check(r) {
			out = append(out, sensor.Suggestion{
				Message:   rl.message,
				Category:  rl.category,
				Priority:  rl.priority,
				Timestamp: r.Timestamp,
			})
		}
	}
	return out
}
