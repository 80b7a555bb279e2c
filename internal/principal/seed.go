package principal

import (
	"context"
	"time"
)

// SeedBootstrapPrincipals creates a default admin, doctor and patient so a
// memory-backed instance is usable out of the box.
func SeedBootstrapPrincipals(store Store) (*Principal, *Principal, *Principal) {
	now := time.Now()
	ctx := context.Background()

	admin := &Principal{
		ID:          "admin-1",
		DisplayName: "Default Admin",
		Email:       "admin@clinica.local",
		Role:        RoleAdmin,
		Status:      StatusActive,
		CreatedAt:   now,
	}
	_ = store.Create(ctx, admin)

	doctor := &Principal{
		ID:          "doctor-1",
		DisplayName: "Dr. Ana Morales",
		Email:       "ana.morales@clinica.local",
		Role:        RoleDoctor,
		Status:      StatusActive,
		Specialty:   "medicina general",
		CreatedAt:   now,
	}
	_ = store.Create(ctx, doctor)

	patient := &Principal{
		ID:          "patient-1",
		DisplayName: "Luis Herrera",
		Email:       "luis.herrera@example.com",
		Role:        RolePatient,
		Status:      StatusActive,
		CreatedAt:   now,
	}
	_ = store.Create(ctx, patient)

	return admin, doctor, patient
}
