package domain

// Dataset is the whole persisted document: every ride, every live booking
// and the id sequences.
type Dataset struct {
	Rides    []*Ride    `json:"rides"`
	Bookings []*Booking `json:"bookings"`

	// Next ids to hand out. Persisted so hard-deleted booking ids are
	// never reused. Older documents lack them; Normalize fills them in.
	NextRideID    int64 `json:"next_ride_id,omitempty"`
	NextBookingID int64 `json:"next_booking_id,omitempty"`
}

// NewDataset returns an empty dataset.
func NewDataset() *Dataset {
	return &Dataset{
		Rides:         []*Ride{},
		Bookings:      []*Booking{},
		NextRideID:    1,
		NextBookingID: 1,
	}
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	c := &Dataset{
		Rides:         make([]*Ride, 0, len(d.Rides)),
		Bookings:      make([]*Booking, 0, len(d.Bookings)),
		NextRideID:    d.NextRideID,
		NextBookingID: d.NextBookingID,
	}
	for _, r := range d.Rides {
		c.Rides = append(c.Rides, r.Clone())
	}
	for _, b := range d.Bookings {
		bc := *b
		c.Bookings = append(c.Bookings, &bc)
	}
	return c
}

// Normalize repairs a freshly loaded document: nil collections become empty,
// id sequences are raised above every existing id, inactive rides that
// still hold bookings are settled, and seat counters are recomputed from
// the live bookings.
//
// Older documents left two kinds of inactive ride with bookings. A ride
// whose bookings fill every seat was deactivated for being full and is
// reactivated. Any other inactive ride was closed by its driver and loses
// its bookings.
func (d *Dataset) Normalize() {
	if d.Rides == nil {
		d.Rides = []*Ride{}
	}
	if d.Bookings == nil {
		d.Bookings = []*Booking{}
	}

	var maxRide, maxBooking int64
	for _, r := range d.Rides {
		maxRide = max(maxRide, r.ID)
	}
	for _, b := range d.Bookings {
		maxBooking = max(maxBooking, b.ID)
	}
	d.NextRideID = max(d.NextRideID, maxRide+1)
	d.NextBookingID = max(d.NextBookingID, maxBooking+1)

	for _, r := range d.Rides {
		if r.IsActive {
			continue
		}
		n := len(d.BookingsForRide(r.ID))
		switch {
		case n == 0:
		case r.TotalSeats > 0 && n >= r.TotalSeats:
			r.IsActive = true
		default:
			d.CloseRide(r)
		}
	}

	for _, r := range d.Rides {
		d.Recount(r)
	}
}

// FindRide returns the ride with the given id regardless of its activity.
func (d *Dataset) FindRide(id int64) *Ride {
	for _, r := range d.Rides {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// FindBooking returns the booking with the given id.
func (d *Dataset) FindBooking(id int64) *Booking {
	for _, b := range d.Bookings {
		if b.ID == id {
			return b
		}
	}
	return nil
}

// AllocateRideID hands out the next ride id.
func (d *Dataset) AllocateRideID() int64 {
	id := d.NextRideID
	d.NextRideID++
	return id
}

// AllocateBookingID hands out the next booking id.
func (d *Dataset) AllocateBookingID() int64 {
	id := d.NextBookingID
	d.NextBookingID++
	return id
}

// BookingsForRide returns the live bookings of a ride in insertion order.
func (d *Dataset) BookingsForRide(rideID int64) []*Booking {
	var out []*Booking
	for _, b := range d.Bookings {
		if b.RideID == rideID {
			out = append(out, b)
		}
	}
	return out
}

// Recount derives BookingsCount and AvailableSeats from the live bookings.
func (d *Dataset) Recount(r *Ride) {
	n := len(d.BookingsForRide(r.ID))
	r.BookingsCount = n
	r.AvailableSeats = max(0, r.TotalSeats-n)
}

// RemoveBooking deletes a booking and recounts its ride. Reports whether
// the booking existed.
func (d *Dataset) RemoveBooking(id int64) bool {
	for i, b := range d.Bookings {
		if b.ID != id {
			continue
		}
		d.Bookings = append(d.Bookings[:i], d.Bookings[i+1:]...)
		if r := d.FindRide(b.RideID); r != nil {
			d.Recount(r)
		}
		return true
	}
	return false
}

// CloseRide deactivates a ride and removes all its bookings, returning the
// removed bookings.
func (d *Dataset) CloseRide(r *Ride) []*Booking {
	r.IsActive = false

	var removed []*Booking
	kept := d.Bookings[:0]
	for _, b := range d.Bookings {
		if b.RideID == r.ID {
			removed = append(removed, b)
			continue
		}
		kept = append(kept, b)
	}
	d.Bookings = kept
	d.Recount(r)
	return removed
}
