package script

import "fmt"

// Generated content ships in Spanish, matching the narration voice. The
// tables below are data, not UI: keep them in sync with the fallbacks so a
// dead text collaborator still yields a coherent script.

// InstructionFor builds the generation instruction sent to the text
// collaborator for one section.
func InstructionFor(kind Kind, topic string, seconds int) string {
	switch kind {
	case KindHook:
		return fmt.Sprintf("Crea un gancho atractivo de %d segundos sobre %s. Debe ser impactante y generar curiosidad.", seconds, topic)
	case KindIntro:
		return fmt.Sprintf("Escribe una introducción de %d segundos que presente el tema %s de forma clara.", seconds, topic)
	case KindMainContent:
		return fmt.Sprintf("Desarrolla el contenido principal sobre %s en %d segundos. Incluye información valiosa y práctica.", topic, seconds)
	case KindExample:
		return fmt.Sprintf("Proporciona un ejemplo concreto y práctico sobre %s que dure %d segundos.", topic, seconds)
	case KindRecap:
		return fmt.Sprintf("Crea un resumen de %d segundos de los puntos clave sobre %s.", seconds, topic)
	case KindCallToAction:
		return fmt.Sprintf("Escribe un call-to-action de %d segundos que motive a la audiencia.", seconds)
	case KindTips:
		return fmt.Sprintf("Comparte %d segundos de tips útiles sobre %s.", seconds, topic)
	case KindOutro:
		return fmt.Sprintf("Crea una despedida de %d segundos que sea memorable y amigable.", seconds)
	case KindOverview:
		return fmt.Sprintf("Presenta una vista general de %s en %d segundos, destacando lo que se aprenderá.", topic, seconds)
	case KindBestPractices:
		return fmt.Sprintf("Describe en %d segundos las mejores prácticas para %s.", seconds, topic)
	case KindConclusion:
		return fmt.Sprintf("Escribe una conclusión profesional de %d segundos sobre %s.", seconds, topic)
	default:
		return fmt.Sprintf("Escribe contenido sobre %s para %s", topic, kind)
	}
}

var fallbacks = map[Kind]string{
	KindHook:          "¿Sabías que %s puede cambiar completamente tu perspectiva? Quédate para descubrirlo.",
	KindIntro:         "Hoy vamos a explorar %s de una manera práctica y fácil de entender.",
	KindMainContent:   "El %s es un concepto fundamental que todos deberíamos conocer. Te explico los puntos más importantes.",
	KindExample:       "Veamos un ejemplo real de cómo aplicar %s en la práctica diaria.",
	KindRecap:         "Para resumir, hemos visto que %s es importante por estas razones clave.",
	KindCallToAction:  "Si te gustó este contenido sobre %s, no olvides seguirme para más tips como este.",
	KindTips:          "Aquí van algunos consejos prácticos sobre %s que puedes aplicar hoy mismo.",
	KindOutro:         "Gracias por acompañarme en este recorrido por %s. ¡Nos vemos en el próximo video!",
	KindOverview:      "Veamos un panorama general de %s y de lo que aprenderás a continuación.",
	KindBestPractices: "Estas son las mejores prácticas que debes seguir al trabajar con %s.",
	KindConclusion:    "En conclusión, %s ofrece ventajas claras si aplicas lo que vimos hoy.",
}

// FallbackFor returns the fixed narration used for a section when the text
// collaborator is unavailable, errors, or returns nothing. Deterministic by
// construction: same kind and topic, same sentence.
func FallbackFor(kind Kind, topic string) string {
	if tpl, ok := fallbacks[kind]; ok {
		return fmt.Sprintf(tpl, topic)
	}
	return fmt.Sprintf("Contenido interesante sobre %s.", topic)
}

var visualTemplates = map[Kind]string{
	KindHook:          "Imagen llamativa relacionada con %s, colores vibrantes, estilo moderno",
	KindIntro:         "Imagen profesional sobre %s, limpia y clara",
	KindMainContent:   "Diagrama o infografía explicando %s, estilo educativo",
	KindExample:       "Ejemplo visual práctico de %s, realista y detallado",
	KindRecap:         "Resumen visual de conceptos clave de %s, organizado",
	KindCallToAction:  "Imagen motivacional relacionada con %s, inspiradora",
	KindTips:          "Lista visual de consejos sobre %s, clara y ordenada",
	KindOutro:         "Imagen de cierre amigable relacionada con %s, tono cálido",
	KindOverview:      "Vista general esquemática de %s, estilo panorámico",
	KindBestPractices: "Checklist visual de buenas prácticas de %s, profesional",
	KindConclusion:    "Imagen de conclusión sobre %s, sobria y elegante",
}

var categoryStyles = map[string]string{
	"programming": ", con elementos de código y tecnología",
	"design":      ", con elementos gráficos y creativos",
	"business":    ", con elementos profesionales y corporativos",
	"general":     ", estilo limpio y profesional",
}

// VisualFor builds the image description for a section: a per-kind phrase
// templated with the topic plus a category style suffix.
func VisualFor(kind Kind, topic string, category string) string {
	base := fmt.Sprintf("Imagen sobre %s", topic)
	if tpl, ok := visualTemplates[kind]; ok {
		base = fmt.Sprintf(tpl, topic)
	}

	suffix, ok := categoryStyles[category]
	if !ok {
		suffix = categoryStyles["general"]
	}
	return base + suffix
}
