package analyzer

import "strings"

type topic struct {
	key      string
	title    string
	children []entry
}

type entry struct {
	text string
	desc string
}

// knowledge is consulted in order; the first key contained in the
// normalized input wins.
var knowledge = []topic{
	{
		key:   "guerra mundial",
		title: "La Segunda Guerra Mundial impacta la política global",
		children: []entry{
			{"Naciones Unidas", "Organización internacional para la paz"},
			{"Guerra Fría", "Rivalidad geopolítica entre superpotencias"},
			{"Descolonización", "Fin de los imperios coloniales europeos"},
		},
	},
	{
		key:   "marketing",
		title: "Estrategia de Marketing Digital",
		children: []entry{
			{"SEO", "Optimización para motores de búsqueda"},
			{"Redes Sociales", "Construcción de comunidad y marca"},
			{"Email Marketing", "Fidelización de clientes"},
		},
	},
	{
		key:   "ciclo del agua",
		title: "El Ciclo Hidrológico Vital",
		children: []entry{
			{"Evaporación", "El agua se convierte en vapor"},
			{"Condensación", "Formación de nubes"},
			{"Precipitación", "Lluvia, nieve o granizo"},
		},
	},
}

func lookupTopic(norm string) (topic, bool) {
	for _, t := range knowledge {
		if strings.Contains(norm, t.key) {
			return t, true
		}
	}
	return topic{}, false
}

func genericTopic(term string) topic {
	return topic{
		title: "Análisis Profundo de: " + term,
		children: []entry{
			{"Contexto", "Origen y antecedentes de " + term},
			{"Elementos Clave", "Componentes principales de " + term},
			{"Impacto", "Consecuencias y relevancia de " + term},
		},
	}
}

type iconRule struct {
	key  string
	icon string
}

// icons maps keywords to icon tokens. Single words match whole tokens;
// multi-word keys match as phrases.
var icons = []iconRule{
	{"base de datos", "database"},
	{"idea", "lightbulb"},
	{"tiempo", "schedule"},
	{"dinero", "attach_money"},
	{"costo", "attach_money"},
	{"usuario", "person"},
	{"cliente", "face"},
	{"servidor", "dns"},
	{"objetivo", "flag"},
	{"meta", "emoji_events"},
	{"problema", "warning"},
	{"error", "error"},
	{"solución", "check_circle"},
	{"inicio", "play_arrow"},
	{"fin", "stop"},
	{"pregunta", "help"},
	{"duda", "help"},
	{"herramienta", "build"},
	{"trabajo", "work"},
	{"email", "mail"},
	{"mensaje", "chat"},
}

func iconFor(norm string, tokens []string) string {
	for _, r := range icons {
		if strings.Contains(r.key, " ") {
			if strings.Contains(norm, r.key) {
				return r.icon
			}
			continue
		}
		for _, t := range tokens {
			if t == r.key {
				return r.icon
			}
		}
	}
	return ""
}

var cycleKeywords = []string{"ciclo", "repetir", "repite", "bucle", "cycle", "loop", "repeat", "vuelve a"}

var hierarchyKeywords = []string{"consiste en", "tipos de", "clasifica", "dividen", "partes", "componentes", "types of", "consists of"}

var stopWords = map[string]bool{
	"además": true, "cuando": true, "porque": true, "aunque": true, "también": true,
	"entonces": true, "mientras": true, "durante": true, "después": true, "antes": true,
	"through": true, "because": true, "before": true, "between": true, "should": true,
}

func containsAny(s string, keys []string) bool {
	for _, k := range keys {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
