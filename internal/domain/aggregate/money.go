package aggregate

// Amounts are carried in minor currency units (kobo). Integer math keeps
// the 10% fee exact to two decimal places without floating point drift.

// PlatformFeePercent is the platform's cut of every booking.
const PlatformFeePercent = 10

// PlatformFee returns the platform fee for a total amount, rounded half-up
// in minor units.
func PlatformFee(totalAmount int64) int64 {
	return (totalAmount*PlatformFeePercent + 50) / 100
}

// ProviderAmount returns what the provider receives after the platform fee.
func ProviderAmount(totalAmount int64) int64 {
	return totalAmount - PlatformFee(totalAmount)
}

// HourlyPrice computes a legacy hourly-rate price for a duration in minutes,
// rounded half-up in minor units.
func HourlyPrice(hourlyRate int64, durationMinutes int) int64 {
	return (hourlyRate*int64(durationMinutes) + 30) / 60
}
