package systemlog

import (
	"strings"
	"testing"
)

func TestActiveFlagLifecycle(t *testing.T) {
	log := New()

	if !log.Active() {
		t.Fatal("registro recém-criado deve estar ativo")
	}

	log.Deactivate()

	if log.Active() {
		t.Fatal("registro deve ficar inativo após Deactivate")
	}
}

func TestWriteAppendsEntries(t *testing.T) {
	log := New()

	log.Write("primeira linha")
	log.Write("segunda linha")

	entries := log.Entries()
	if len(entries) != 2 {
		t.Fatalf("esperadas 2 entradas, obtidas %d", len(entries))
	}
	if !strings.HasSuffix(entries[0], "primeira linha") {
		t.Errorf("entrada inesperada: %q", entries[0])
	}
}

func TestAlertNotifiesHandlers(t *testing.T) {
	log := New()

	var received []string
	log.RegisterAlertHandler(func(text string) {
		received = append(received, text)
	})

	log.Alert("taxa alta de anomalias")

	if len(received) != 1 || received[0] != "taxa alta de anomalias" {
		t.Fatalf("handler de alerta não foi notificado: %v", received)
	}
	if log.AlertCount() != 1 {
		t.Errorf("AlertCount = %d, esperado 1", log.AlertCount())
	}
	if log.LastAlert() != "taxa alta de anomalias" {
		t.Errorf("LastAlert = %q", log.LastAlert())
	}
}
