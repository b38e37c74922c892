package models

import (
	"fmt"
	"sync/atomic"
)

// oidPrefix wird einmalig beim Start aus der Konfiguration gesetzt.
var oidPrefix atomic.Value

func init() {
	oidPrefix.Store("ppd")
}

// SetOIDPrefix setzt das Präfix für alle danach vergebenen Objekt-IDs.
func SetOIDPrefix(prefix string) {
	if prefix != "" {
		oidPrefix.Store(prefix)
	}
}

// FormatOID baut die stabile Objekt-ID eines Datensatzes aus Präfix,
// Modell-Kürzel und der auf neun Stellen aufgefüllten Datenbank-ID,
// z.B. ppd-me-000-000042.
func FormatOID(modelCode string, id uint) string {
	padded := fmt.Sprintf("%09d", id)
	return fmt.Sprintf("%s-%s-%s-%s", oidPrefix.Load().(string), modelCode, padded[:3], padded[3:])
}
