package domain

import "time"

// TotalBeds is the bed inventory of a room configuration.
func TotalBeds(totalRooms, bedsPerRoom int) int {
	if totalRooms <= 0 || bedsPerRoom <= 0 {
		return 0
	}
	return totalRooms * bedsPerRoom
}

// AvailableBeds returns total - booked, never below zero.
func AvailableBeds(totalBeds, bookedBeds int) int {
	if bookedBeds >= totalBeds {
		return 0
	}
	if bookedBeds < 0 {
		return totalBeds
	}
	return totalBeds - bookedBeds
}

// RoomsNeeded is the number of rooms that hold the given beds (ceiling division).
func RoomsNeeded(beds, bedsPerRoom int) int {
	if beds <= 0 || bedsPerRoom <= 0 {
		return 0
	}
	return (beds + bedsPerRoom - 1) / bedsPerRoom
}

// Overlaps reports whether [aStart, aEnd) and [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// HoldsBed reports whether a booking with status over [start, end) holds a bed
// somewhere in [from, to). A zero to means open ended.
func HoldsBed(status string, start, end, from, to time.Time) bool {
	if !IsOccupying(status) || !end.After(from) {
		return false
	}
	return to.IsZero() || start.Before(to)
}

// IsOccupying reports whether a booking in this status holds a bed.
func IsOccupying(status string) bool {
	for _, s := range OccupyingBookingStatuses {
		if s == status {
			return true
		}
	}
	return false
}
