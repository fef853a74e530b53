package testutils

var presentationTopics = []string{
	"Water quality of the municipal reservoir",
	"Solar drying of agricultural produce",
	"Reading habits of first-year students",
	"Low-cost seismic sensors for schools",
	"Recycling programs in small towns",
	"Mobile banking adoption among vendors",
	"Urban heat islands and tree cover",
	"Sign language in public services",
	"Composting in school cafeterias",
	"Air quality near bus terminals",
	"Local history through oral testimony",
	"Water-saving irrigation for family plots",
}

var firstNames = []string{
	"Ana", "Bruno", "Camila", "Diego", "Elena", "Felipe",
	"Gabriela", "Hugo", "Isabel", "Jorge", "Lucia", "Mateo",
}

var lastNames = []string{
	"Ruiz", "Castro", "Mendoza", "Vargas", "Rojas", "Torres",
	"Flores", "Herrera", "Silva", "Morales", "Ortega", "Paredes",
}
