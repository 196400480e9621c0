package gemini

import "fmt"

const resultSchema = `{
  "best_match": {"scientific_name": string, "common_name": string, "family": string, "confidence": number 0..1},
  "alternatives": [{"scientific_name": string, "common_name": string, "family": string, "confidence": number 0..1}],
  "health_assessment": {"status": string, "issues": [{"name": string, "likelihood": number 0..1, "recommended_action": string}]},
  "care_guide": {"watering": string, "sunlight": string, "soil": string, "temperature": string, "fertilizing": string},
  "fun_facts": [string]
}`

func systemInstruction(lang string) string {
	if lang == "" {
		lang = "en"
	}
	return fmt.Sprintf(`You are a botanist identifying a houseplant from three photos of the same plant
(whole plant, a close-up of a leaf, and the plant in its surroundings).

Rules:
- Identify the species from the photos only. Do not guess beyond the visual evidence.
- If the photos do not show an identifiable plant, return {} exactly.
- Scientific names stay in Latin; every free-text field is written in the "%s" locale.
- Care advice must fit the species you identified, not generic advice.
- Output strictly one JSON object with this shape, no text outside it:

%s`, lang, resultSchema)
}

func userInstruction(lang string) string {
	return fmt.Sprintf("Identify the plant in the attached photos. Respond with JSON only, free text in %q.", lang)
}
