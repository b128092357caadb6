package domain

import (
	"fmt"
	"strconv"
)

// Builtin returns the named builtin domain spec, or an error listing the
// known names.
func Builtin(name string) (*Spec, error) {
	for _, s := range Builtins() {
		if s.Name == name {
			return s, nil
		}
	}
	return nil, fmt.Errorf("unknown domain %q (have %v)", name, BuiltinNames())
}

// Builtins returns all builtin domain specs in a stable order.
func Builtins() []*Spec {
	return []*Spec{
		Restaurant(), RestaurantStyle(), RestaurantPitt(),
		Bus(), Weather(), Movie(),
	}
}

// BuiltinNames lists the builtin domain names.
func BuiltinNames() []string {
	var names []string
	for _, s := range Builtins() {
		names = append(names, s.Name)
	}
	return names
}

var usCities = []string{
	"Pittsburgh", "New York", "Boston", "Seattle", "Los Angeles",
	"San Francisco", "San Jose", "Philadelphia", "Washington DC", "Austin",
}

var pittPlaces = []string{
	"Downtown", "CMU", "Forbes and Murray", "Craig", "Waterfront", "Airport",
	"U Pitt", "Mellon Park", "Lawrance", "Monroveil", "Shadyside", "Squrill Hill",
}

var cuisines = []string{
	"Thai", "Chinese", "Korean", "Japanese", "American", "Italian",
	"Indian", "French", "Greek", "Mexican", "Russian", "Hawaiian",
}

func restaurantSlots() ([]SlotSpec, []SlotSpec) {
	usr := []SlotSpec{
		{Name: "loc", Description: "location city", Vocabulary: usCities},
		{Name: "food_pref", Description: "food preference", Vocabulary: cuisines},
	}
	sys := []SlotSpec{
		{Name: "open", Description: "if it's open now", Vocabulary: []string{"open", "closed"}},
		{Name: "price", Description: "average price per person", Vocabulary: []string{"cheap", "moderate", "expensive"}},
		{Name: "parking", Description: "if it has parking", Vocabulary: []string{"street parking", "valet parking", "no parking"}},
	}
	return usr, sys
}

func restaurantSysNLG() map[string]NLGBundle {
	return map[string]NLGBundle{
		"open": {
			Inform:  []string{"The restaurant is %s.", "It is %s right now."},
			Request: []string{"Tell me if the restaurant is open.", "What's the hours?"},
			YNQuestion: map[string][]string{
				"open":   {"Is the restaurant open?"},
				"closed": {"Is it closed?"},
			},
		},
		"parking": {
			Inform:  []string{"The restaurant has %s.", "This place has %s."},
			Request: []string{"What kind of parking does it have?.", "How easy is it to park?"},
			YNQuestion: map[string][]string{
				"street parking": {"Does it have street parking?"},
				"valet parking":  {"Does it have valet parking?"},
			},
		},
		"price": {
			Inform:  []string{"The restaurant serves %s food.", "The price is %s."},
			Request: []string{"What's the average price?", "How expensive it is?"},
			YNQuestion: map[string][]string{
				"expensive": {"Is it expensive?"},
				"moderate":  {"Does it have moderate price?"},
				"cheap":     {"Is it cheap?"},
			},
		},
	}
}

// Restaurant is the plain restaurant recommendation domain.
func Restaurant() *Spec {
	usr, sys := restaurantSlots()
	nlg := restaurantSysNLG()
	nlg["loc"] = NLGBundle{
		Inform:  []string{"I am at %s.", "%s.", "I'm interested in food at %s.", "At %s.", "In %s."},
		Request: []string{"Which city are you interested in?", "Which place?"},
	}
	nlg["food_pref"] = NLGBundle{
		Inform:  []string{"I like %s food.", "%s food.", "%s restaurant.", "%s."},
		Request: []string{"What kind of food do you like?", "What type of restaurant?"},
	}
	nlg["default"] = NLGBundle{
		Inform: []string{"Restaurant %s is a good choice."},
		Request: []string{
			"I need a restaurant.",
			"I am looking for a restaurant.",
			"Recommend me a place to eat.",
		},
	}
	return &Spec{
		Name:        "restaurant",
		Greet:       "Welcome to restaurant recommendation system.",
		UserSlots:   usr,
		SystemSlots: sys,
		DBSize:      100,
		NLG:         nlg,
	}
}

// RestaurantStyle is the restaurant domain with an alternative surface style.
func RestaurantStyle() *Spec {
	usr, sys := restaurantSlots()
	nlg := restaurantSysNLG()
	nlg["loc"] = NLGBundle{
		Inform:  []string{"I am at %s.", "%s.", "I'm interested in food at %s.", "At %s.", "In %s."},
		Request: []string{"Which area are you currently locating at?", "well, what is the place?"},
	}
	nlg["food_pref"] = NLGBundle{
		Inform:  []string{"I like %s food.", "%s food.", "%s restaurant.", "%s."},
		Request: []string{"What cusine type are you interested", "What do you like to eat?"},
	}
	nlg["open"] = NLGBundle{
		Inform:  []string{"This wonderful place is %s.", "Currently, this place is %s."},
		Request: []string{"Tell me if the restaurant is open.", "What's the hours?"},
		YNQuestion: map[string][]string{
			"open":   {"Is the restaurant open?"},
			"closed": {"Is it closed?"},
		},
	}
	nlg["parking"] = NLGBundle{
		Inform:  []string{"The parking status is %s.", "For parking, it does have %s."},
		Request: []string{"What kind of parking does it have?.", "How easy is it to park?"},
		YNQuestion: map[string][]string{
			"street parking": {"Does it have street parking?"},
			"valet parking":  {"Does it have valet parking?"},
		},
	}
	nlg["price"] = NLGBundle{
		Inform:  []string{"This eating place provides %s food.", "Let me check that for you. The price is %s."},
		Request: []string{"What's the average price?", "How expensive it is?"},
		YNQuestion: map[string][]string{
			"expensive": {"Is it expensive?"},
			"moderate":  {"Does it have moderate price?"},
			"cheap":     {"Is it cheap?"},
		},
	}
	nlg["default"] = NLGBundle{
		Inform: []string{"Let me look up in my database. A good choice is %s."},
		Request: []string{
			"I need a restaurant.",
			"I am looking for a restaurant.",
			"Recommend me a place to eat.",
		},
	}
	return &Spec{
		Name:        "restaurant_style",
		Greet:       "Hello there. I know a lot about places to eat.",
		UserSlots:   usr,
		SystemSlots: sys,
		DBSize:      100,
		NLG:         nlg,
	}
}

// RestaurantPitt is the Pittsburgh-local restaurant domain.
func RestaurantPitt() *Spec {
	nlg := restaurantSysNLG()
	nlg["loc"] = NLGBundle{
		Inform:  []string{"I am at %s.", "%s.", "I'm interested in food at %s.", "At %s.", "In %s."},
		Request: []string{"Which city are you interested in?", "Which place?"},
	}
	nlg["food_pref"] = NLGBundle{
		Inform:  []string{"I like %s food.", "%s food.", "%s restaurant.", "%s."},
		Request: []string{"What kind of food do you like?", "What type of restaurant?"},
	}
	nlg["default"] = NLGBundle{
		Inform: []string{"Restaurant %s is a good choice."},
		Request: []string{
			"I need a restaurant.",
			"I am looking for a restaurant.",
			"Recommend me a place to eat.",
		},
	}
	return &Spec{
		Name:  "rest_pitt",
		Greet: "I am an expert about Pittsburgh restaurant.",
		UserSlots: []SlotSpec{
			{Name: "loc", Description: "location city", Vocabulary: pittPlaces},
			{Name: "food_pref", Description: "food preference", Vocabulary: []string{
				"healthy", "fried", "panned", "steamed", "hot pot",
				"grilled", "salad", "boiled", "raw", "stewed",
			}},
		},
		SystemSlots: []SlotSpec{
			{Name: "open", Description: "if it's open now", Vocabulary: []string{"open", "going to start", "going to close", "closed"}},
			{Name: "price", Description: "average price per person", Vocabulary: []string{"cheap", "average", "fancy"}},
			{Name: "parking", Description: "if it has parking", Vocabulary: []string{"garage parking", "street parking", "no parking"}},
		},
		DBSize: 150,
		NLG:    nlg,
	}
}

// Bus is the bus information domain.
func Bus() *Spec {
	arriveVocab := minuteRange(0, 30, 5)
	durationVocab := minuteRange(0, 60, 5)

	arriveYN := map[string][]string{}
	for _, w := range arriveVocab {
		if n, _ := strconv.Atoi(w); n > 15 {
			arriveYN[w] = []string{"Is it a long wait?"}
		} else {
			arriveYN[w] = []string{"Will it be here shortly?"}
		}
	}
	durationYN := map[string][]string{}
	for _, w := range durationVocab {
		if n, _ := strconv.Atoi(w); n > 30 {
			durationYN[w] = []string{"Will it take long to get there?"}
		} else {
			durationYN[w] = []string{"Is it a short trip?"}
		}
	}

	datetimeVocab := []string{"today", "tomorrow", "tonight", "this morning", "this afternoon"}
	for t := 1; t <= 24; t++ {
		datetimeVocab = append(datetimeVocab, strconv.Itoa(t))
	}

	return &Spec{
		Name:  "bus",
		Greet: "Ask me about bus information.",
		UserSlots: []SlotSpec{
			{Name: "from_loc", Description: "departure place", Vocabulary: pittPlaces},
			{Name: "to_loc", Description: "arrival place", Vocabulary: pittPlaces},
			{Name: "datetime", Description: "leaving time", Vocabulary: datetimeVocab},
		},
		SystemSlots: []SlotSpec{
			{Name: "arrive_in", Description: "how soon it arrives", Vocabulary: arriveVocab},
			{Name: "duration", Description: "how long it takes", Vocabulary: durationVocab},
		},
		DBSize: 150,
		NLG: map[string]NLGBundle{
			"from_loc": {
				Inform:  []string{"I am at %s.", "%s.", "Leaving from %s.", "At %s.", "Departure place is %s."},
				Request: []string{"Where are you leaving from?", "What's the departure place?"},
			},
			"to_loc": {
				Inform:  []string{"Going to %s.", "%s.", "Destination is %s.", "Go to %s.", "To %s"},
				Request: []string{"Where are you going?", "Where do you want to take off?"},
			},
			"datetime": {
				Inform:  []string{"At %s.", "%s.", "I am leaving on %s.", "Departure time is %s."},
				Request: []string{"When are you going?", "What time do you need the bus?"},
			},
			"arrive_in": {
				Inform: []string{"The bus will arrive in %s minutes.", "Arrive in %s minutes.", "Will be here in %s minutes"},
				Request: []string{
					"When will the bus arrive?", "How long do I need to wait?",
					"What's the estimated arrival time",
				},
				YNQuestion: arriveYN,
			},
			"duration": {
				Inform:     []string{"It will take %s minutes.", "The ride is %s minutes long."},
				Request:    []string{"How long will it take?.", "How much tim will it take?"},
				YNQuestion: durationYN,
			},
			"default": {
				Inform: []string{"Bus %s can take you there."},
				Request: []string{
					"Look for bus information.",
					"I need a bus.",
					"Recommend me a bus to take.",
				},
			},
		},
	}
}

// Weather is the weather report domain.
func Weather() *Spec {
	weatherTypes := []string{"raining", "snowing", "windy", "sunny", "foggy", "cloudy"}
	weatherYN := map[string][]string{}
	for _, w := range weatherTypes {
		weatherYN[w] = []string{fmt.Sprintf("Is it going to be %s?", w)}
	}
	tempVocab := minuteRange(20, 40, 2)

	return &Spec{
		Name:  "weather",
		Greet: "Weather bot is here.",
		UserSlots: []SlotSpec{
			{Name: "loc", Description: "location city", Vocabulary: usCities},
			{Name: "datetime", Description: "which time's weather?", Vocabulary: []string{
				"today", "tomorrow", "tonight", "this morning",
				"the day after tomorrow", "this weekend",
			}},
		},
		SystemSlots: []SlotSpec{
			{Name: "temperature", Description: "the temperature", Vocabulary: tempVocab},
			{Name: "weather_type", Description: "the type", Vocabulary: weatherTypes},
		},
		DBSize: 40,
		NLG: map[string]NLGBundle{
			"loc": {
				Inform:  []string{"I am at %s.", "%s.", "Weather at %s.", "At %s.", "In %s."},
				Request: []string{"Which city are you interested in?", "Which place?"},
			},
			"datetime": {
				Inform:  []string{"Weather %s", "%s.", "I am interested in %s."},
				Request: []string{"What time's weather?", "What date are you interested?"},
			},
			"temperature": {
				Inform:  []string{"The temperature will be %s.", "The temperature that time will be %s."},
				Request: []string{"What's the temperature?", "What will be the temperature?"},
			},
			"weather_type": {
				Inform:     []string{"The weather will be %s.", "The weather type will be %s."},
				Request:    []string{"What's the weather type?.", "What will be the weather like"},
				YNQuestion: weatherYN,
			},
			"default": {
				Inform:  []string{"Your weather report %s is here."},
				Request: []string{"What's the weather?.", "What will the weather be?"},
			},
		},
	}
}

// Movie is the movie recommendation domain.
func Movie() *Spec {
	companies := []string{"20th Century Fox", "Sony", "MGM", "Walt Disney", "Universal"}
	companyYN := map[string][]string{}
	for _, c := range companies {
		companyYN[c] = []string{fmt.Sprintf("Is this movie from %s?", c)}
	}
	var directors []string
	directorYN := map[string][]string{}
	for r := 'A'; r <= 'Z'; r++ {
		d := string(r)
		directors = append(directors, d)
		directorYN[d] = []string{fmt.Sprintf("Is it directed by %s?", d)}
	}
	ratings := []string{"0", "1", "2", "3", "4"}

	return &Spec{
		Name:  "movie",
		Greet: "Want to know about movies?",
		UserSlots: []SlotSpec{
			{Name: "genre", Description: "type of movie", Vocabulary: []string{
				"Action", "Sci-Fi", "Comedy", "Crime", "Sport", "Documentary", "Drama",
				"Family", "Horror", "War", "Music", "Fantasy", "Romance", "Western",
			}},
			{Name: "years", Description: "when", Vocabulary: []string{
				"60s", "70s", "80s", "90s", "2000-2010", "2010-present",
			}},
			{Name: "country", Description: "where", Vocabulary: []string{
				"USA", "France", "China", "Korea", "Japan", "Germany",
				"Mexico", "Russia", "Thailand",
			}},
		},
		SystemSlots: []SlotSpec{
			{Name: "rating", Description: "user rating", Vocabulary: ratings},
			{Name: "company", Description: "the production company", Vocabulary: companies},
			{Name: "director", Description: "the director's name", Vocabulary: directors},
		},
		DBSize: 200,
		NLG: map[string]NLGBundle{
			"genre": {
				Inform:  []string{"I like %s movies.", "%s.", "I love %s ones.", "%s movies."},
				Request: []string{"What genre do you like?", "Which type of movie?"},
			},
			"years": {
				Inform:  []string{"Movies in %s", "In %s."},
				Request: []string{"What's the time period?", "Movie in what years?"},
			},
			"country": {
				Inform:  []string{"Movie from %s", "%s.", "From %s."},
				Request: []string{"Which country's movie?", "Movie from what country?"},
			},
			"rating": {
				Inform:  []string{"This movie has a rating of %s.", "The rating is %s."},
				Request: []string{"What's the rating?", "How people rate this movie?"},
				YNQuestion: map[string][]string{
					"4": {"Does it have a rating of 4/5?"},
					"1": {"Does it have a very bad rating?"},
				},
			},
			"company": {
				Inform:     []string{"It's made by %s.", "The movie is from %s."},
				Request:    []string{"Which company produced this movie?.", "Which company?"},
				YNQuestion: companyYN,
			},
			"director": {
				Inform:     []string{"The director is %s.", "It's director by %s."},
				Request:    []string{"Who is the director?.", "Who directed it?"},
				YNQuestion: directorYN,
			},
			"default": {
				Inform: []string{"Movie %s is a good choice."},
				Request: []string{
					"Recommend a movie.",
					"Give me some good suggestions about movies.",
					"What should I watch now",
				},
			},
		},
	}
}

func minuteRange(lo, hi, step int) []string {
	var out []string
	for t := lo; t < hi; t += step {
		out = append(out, strconv.Itoa(t))
	}
	return out
}
