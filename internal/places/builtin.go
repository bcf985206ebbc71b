package places

import "github.com/woozymasta/geolocate/internal/geo"

// builtin is the default known-place table keyed by lowercase name.
var builtin = map[string]geo.Place{
	// Indian cities
	"delhi":         geo.NewPlace(28.6139, 77.2090, "Delhi", "India"),
	"mumbai":        geo.NewPlace(19.0760, 72.8777, "Mumbai", "India"),
	"bangalore":     geo.NewPlace(12.9716, 77.5946, "Bengaluru", "India"),
	"bengaluru":     geo.NewPlace(12.9716, 77.5946, "Bengaluru", "India"),
	"chennai":       geo.NewPlace(13.0827, 80.2707, "Chennai", "India"),
	"hyderabad":     geo.NewPlace(17.3850, 78.4867, "Hyderabad", "India"),
	"kolkata":       geo.NewPlace(22.5726, 88.3639, "Kolkata", "India"),
	"calcutta":      geo.NewPlace(22.5726, 88.3639, "Kolkata", "India"),
	"pune":          geo.NewPlace(18.5204, 73.8567, "Pune", "India"),
	"jaipur":        geo.NewPlace(26.9124, 75.7873, "Jaipur", "India"),
	"ahmedabad":     geo.NewPlace(23.0225, 72.5714, "Ahmedabad", "India"),
	"chandigarh":    geo.NewPlace(30.7333, 76.7794, "Chandigarh", "India"),
	"lucknow":       geo.NewPlace(26.8467, 80.9462, "Lucknow", "India"),
	"kanpur":        geo.NewPlace(26.4499, 80.3319, "Kanpur", "India"),
	"nagpur":        geo.NewPlace(21.1458, 79.0882, "Nagpur", "India"),
	"indore":        geo.NewPlace(22.7196, 75.8577, "Indore", "India"),
	"bhopal":        geo.NewPlace(23.2599, 77.4126, "Bhopal", "India"),
	"visakhapatnam": geo.NewPlace(17.6868, 83.2185, "Visakhapatnam", "India"),
	"patna":         geo.NewPlace(25.5941, 85.1376, "Patna", "India"),
	"surat":         geo.NewPlace(21.1702, 72.8311, "Surat", "India"),

	// International cities
	"new york":    geo.NewPlace(40.7128, -74.0060, "New York", "USA"),
	"los angeles": geo.NewPlace(34.0522, -118.2437, "Los Angeles", "USA"),
	"london":      geo.NewPlace(51.5074, -0.1278, "London", "UK"),
	"paris":       geo.NewPlace(48.8566, 2.3522, "Paris", "France"),
	"tokyo":       geo.NewPlace(35.6762, 139.6503, "Tokyo", "Japan"),
	"sydney":      geo.NewPlace(-33.8688, 151.2093, "Sydney", "Australia"),
	"dubai":       geo.NewPlace(25.2048, 55.2708, "Dubai", "UAE"),
	"singapore":   geo.NewPlace(1.3521, 103.8198, "Singapore", "Singapore"),
	"hong kong":   geo.NewPlace(22.3193, 114.1694, "Hong Kong", "China"),
	"beijing":     geo.NewPlace(39.9042, 116.4074, "Beijing", "China"),
	"moscow":      geo.NewPlace(55.7558, 37.6173, "Moscow", "Russia"),
	"berlin":      geo.NewPlace(52.5200, 13.4050, "Berlin", "Germany"),

	// Landmarks
	"taj mahal":         geo.NewPlace(27.1751, 78.0421, "Agra", "India"),
	"india gate":        geo.NewPlace(28.6129, 77.2295, "Delhi", "India"),
	"lotus temple":      geo.NewPlace(28.5535, 77.2588, "Delhi", "India"),
	"gateway of india":  geo.NewPlace(18.9218, 72.8347, "Mumbai", "India"),
	"eiffel tower":      geo.NewPlace(48.8584, 2.2945, "Paris", "France"),
	"statue of liberty": geo.NewPlace(40.6892, -74.0445, "New York", "USA"),
	"big ben":           geo.NewPlace(51.5007, -0.1246, "London", "UK"),
}
