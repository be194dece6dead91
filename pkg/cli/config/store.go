package config

import "github.com/urfave/cli/v3"

// Store holds run record persistence configuration
type Store struct {
	FirestoreProject    string
	FirestoreCollection string
	GCSBucket           string
}

// Flags returns CLI flags for store configuration
func (c *Store) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "firestore-project",
			Usage:       "GCP project for the Firestore run store (empty keeps runs in memory)",
			Destination: &c.FirestoreProject,
			Sources:     cli.EnvVars("DROVER_FIRESTORE_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "firestore-collection",
			Usage:       "Firestore collection for run records",
			Destination: &c.FirestoreCollection,
			Sources:     cli.EnvVars("DROVER_FIRESTORE_COLLECTION"),
		},
		&cli.StringFlag{
			Name:        "artifact-bucket",
			Usage:       "Cloud Storage bucket for run artifacts (empty disables archiving)",
			Destination: &c.GCSBucket,
			Sources:     cli.EnvVars("DROVER_ARTIFACT_BUCKET"),
		},
	}
}
