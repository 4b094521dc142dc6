// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package llm

import (
	"encoding/json"
	"strings"

	"asesor/internal/profile"
)

// historyWindow caps how many prior turns are quoted to the model.
const historyWindow = 5

// systemPrompt instructs the model to answer in Spanish and to return the
// extraction schema the profile understands. The JSON contract here must
// stay in sync with Response and profile.Merge.
const systemPrompt = `Eres un asesor amable de una tienda de tecnología que ayuda a
elegir un computador portátil. Conversas en español, con mensajes cortos y
una sola pregunta por turno.

Responde SIEMPRE con un único objeto JSON, sin texto adicional:

{
  "reply": "tu respuesta al cliente en español",
  "extracted": {
    "use_case": "gaming|creative|study|office|general",
    "budget_max": 0,
    "budget_min": 0,
    "priorities": ["performance|portability|battery|price|display"],
    "min_ram_gb": 0,
    "max_weight_kg": 0,
    "min_battery_hours": 0,
    "os_preference": "",
    "nice_to_haves": [],
    "software_needs": [],
    "location": "",
    "frequency": ""
  },
  "confidence": 0.0,
  "ready_to_search": false
}

Reglas:
- Incluye en "extracted" solo los campos que el cliente mencionó en este mensaje.
- Los montos van en pesos colombianos sin separadores ("dos millones y medio" es 2500000).
- Marca "ready_to_search" en true solo cuando conozcas el uso, el presupuesto y al menos una prioridad.
- Si falta información importante, pregunta por un solo dato a la vez.`

// buildPrompt assembles the full request: instructions, current profile,
// recent history, and the new message.
func buildPrompt(message string, prof *profile.Profile, history []Turn) string {
	var b strings.Builder
	b.WriteString(systemPrompt)

	if prof != nil {
		if data, err := json.Marshal(prof); err == nil {
			b.WriteString("\n\n[PERFIL ACTUAL]\n")
			b.Write(data)
		}
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	if len(history) > 0 {
		b.WriteString("\n\n[CONVERSACIÓN RECIENTE]\n")
		for _, turn := range history {
			b.WriteString(turn.Role)
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n[MENSAJE DEL CLIENTE]\n")
	b.WriteString(message)
	return b.String()
}
