package server

import (
	"time"

	"github.com/and161185/locadmin/internal/model"
)

// seed populates the store with the demo account and a sample project so
// the console works against a fresh server with zero setup.
func (m *memStore) seed() error {
	if _, err := m.CreateUser("demo", "demo@example.com", "demo123", "Demo User"); err != nil {
		return err
	}

	now := time.Now().UTC()
	project := model.Project{
		ID:          newID(),
		Name:        "Website",
		Description: "Marketing site and web app copy",
		Languages: []model.Language{
			{Code: "en", Name: "English", Flag: "🇺🇸"},
			{Code: "es", Name: "Spanish", Flag: "🇪🇸"},
			{Code: "fr", Name: "French", Flag: "🇫🇷"},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.AddProject(project)

	type seedKey struct {
		key, category, description string
		translations               map[string]string
	}
	for _, sk := range []seedKey{
		{"app.title", "general", "Application name in the header", map[string]string{
			"en": "Localization Admin", "es": "Administrador de Localización", "fr": "Admin de Localisation",
		}},
		{"app.welcome", "general", "Greeting on the landing page", map[string]string{
			"en": "Welcome back", "es": "Bienvenido de nuevo",
		}},
		{"nav.home", "navigation", "Home link label", map[string]string{
			"en": "Home", "es": "Inicio", "fr": "Accueil",
		}},
		{"nav.settings", "navigation", "Settings link label", map[string]string{
			"en": "Settings", "fr": "Paramètres",
		}},
		{"button.save", "buttons", "Primary save action", map[string]string{
			"en": "Save", "es": "Guardar", "fr": "Enregistrer",
		}},
		{"button.cancel", "buttons", "Secondary cancel action", map[string]string{
			"en": "Cancel",
		}},
	} {
		if _, err := m.CreateKey(project.ID, sk.key, sk.category, sk.description, sk.translations, "seed"); err != nil {
			return err
		}
	}
	return nil
}
