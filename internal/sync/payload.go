package sync

import "github.com/marcus/roster/internal/models"

// Payload projects records to what the sink receives. ID, creation time and
// the sync flag stay on the device.
func Payload(people []models.Person) []models.Contact {
	batch := make([]models.Contact, len(people))
	for i, p := range people {
		batch[i] = p.Contact
	}
	return batch
}
