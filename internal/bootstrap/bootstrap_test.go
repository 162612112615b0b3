package bootstrap

import "testing"

func TestModels(t *testing.T) {
	models, err := Models()
	if err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("Models() len = %d, want 2", len(models))
	}
	if models[0].Name != "d:dictionary" || models[1].Name != "sys:systemmodel" {
		t.Fatalf("Models() names = %s, %s", models[0].Name, models[1].Name)
	}
	for _, m := range models {
		if err := m.Validate(); err != nil {
			t.Fatalf("Validate(%s) error = %v", m.Name, err)
		}
	}
	if got := len(models[0].DataTypes); got != 21 {
		t.Fatalf("data types = %d, want 21", got)
	}
	if models[1].Namespaces[0].URI != SystemNamespace {
		t.Fatalf("system namespace = %s", models[1].Namespaces[0].URI)
	}
}
