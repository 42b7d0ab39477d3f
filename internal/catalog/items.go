package catalog

var laundryItems = []string{
	"Shirt", "T-shirt", "Kurta", "Trousers", "Pyjama", "Salwar", "3 pc suit", "Sherwani", "Tops",
	"Cotton saree", "Silk saree", "Ghagra", "Plated skirt", "Sweater", "Jacket", "Blazer", "Skirt",
	"Kid's shirt", "Kids trousers", "Kid's blazer", "Kid's t-shirt", "Kid's kurta", "Kid's salwar",
	"Kid's sherwani", "Kid's jacket", "Carpet", "Bedsheet", "Pillow cover", "Blanket", "Galicha",
	"Other laundry services",
}

// defaultItems lists the sub-items offered per service category when the
// service has no service_items rows of its own.
var defaultItems = map[string][]string{
	"Clothes Ironing Services":   laundryItems,
	"Washing & Ironing Services": laundryItems,
	"Dry Cleaning Services":      laundryItems,
	"Carpentry Services": {
		"SINGLE BED", "LAMINATE DOOR", "DOOR LATCH", "2 CHAIR & 1 SOFA (SET)", "NEW SOFA",
		"DOUBLE BED ( 5 X 7 IN PLYWOOD)", "DOOR LOCK FITTING", "TABLE", "OFFICE COUNTER", "NEW CHAIR",
		"DOOR PEEPHOLE", "HINGES FITTING/ REPAIR", "DOOR CHAIN FITTING", "DOOR HANDLE FITTING",
		"DOOR STOPPER", "Other carpentry services",
	},
	"Electrical Services": {
		"JHOOMER FITTING", "GEYSER COIL FITTING", "GEYSER OTHER MAINTAINANCE", "SWITCH FITTING (PER SWITCH)",
		"SWITCH REPAIR", "FAN BEARING", "FAN WINDING", "FAN WINDING & BEARING",
		"NEW AC SUPPLY POINT (IN CONCEAL PATTI PER POINT)", "NEW POWER POINT FITTING (IN CASING PATTI PER POINT)",
		"NEW AC SUPPLY POINT (IN CASING PAATTI PER POINT)", "NEW POWER POINT FITTING (IN CONCEAL PATTI PER POINT)",
		"INVERTER BATTERY INSTALLATION", "INVERTER POINT FITTING (PER POINT)", "WALL FAN FITTING",
		"1/2 HP WATER MOTOR PUMP FITTING", "COOLER, WATER PUMP FITTING", "COOLER FAN MOTOR FITTING", "FALSE",
		"CEILING POINT (PER POINT)", "CONCEAL ELECTRICAL WIRING (PER POINT)", "CASING ELECTRICAL WIRING (PER POINT)",
		"ELECTRIC IRON REPAIR", "Other electrical services",
	},
	"Plumbing Services": {
		"TOILET JET", "BATHROOM WATER PROOFING", "BATHROOM WC (REMOVAL)", "OLD PIPES WORK",
		"KHODKAAM (DIGGING WORK)", "EUROPEAN WATER CLOSET", "WALL HUNG COMMODE FITTING", "ORISSA PAN TOILET",
		"GULLY TRAP", "NAHANI TRAP", "SIPHON FITTING", "FLUSH TANK AND COCK", "WATER TAP FITTING",
		"VASE COUPLING FITTING", "PILLAR COCK FITTING", "ANGULAR COCK FITTING", "BIB COCK FITTING",
		"Other plumbing services",
	},
}

// DefaultItems returns a copy of the built-in sub-items for category.
func DefaultItems(category string) []string {
	items := defaultItems[category]
	if items == nil {
		return nil
	}
	return append([]string(nil), items...)
}
