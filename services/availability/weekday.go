package availability

import (
	"strings"
	"time"

	"golang.org/x/text/language"
)

// weekdayNames is the display/parse table, indexed by time.Weekday.
var weekdayNames = map[language.Tag][7]string{
	language.English: {"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"},
	language.Hebrew:  {"ראשון", "שני", "שלישי", "רביעי", "חמישי", "שישי", "שבת"},
}

// Hebrew letter abbreviations (א׳ for Sunday ... ש׳ for Saturday).
var hebrewDayLetters = [7]string{"א", "ב", "ג", "ד", "ה", "ו", "ש"}

var supportedLocales = []language.Tag{language.English, language.Hebrew}

var localeMatcher = language.NewMatcher(supportedLocales)

const hebrewDayPrefix = "יום"

// ParseWeekday maps an English or Hebrew day name to its weekday.
func ParseWeekday(name string) (time.Weekday, bool) {
	s := strings.TrimSpace(name)
	if s == "" {
		return 0, false
	}

	for d, en := range weekdayNames[language.English] {
		if strings.EqualFold(s, en) || (len(s) == 3 && strings.EqualFold(s, en[:3])) {
			return time.Weekday(d), true
		}
	}

	he := strings.TrimSpace(strings.TrimPrefix(s, hebrewDayPrefix))
	for d, n := range weekdayNames[language.Hebrew] {
		if he == n {
			return time.Weekday(d), true
		}
	}

	letter := strings.TrimRight(he, "׳'")
	if letter != he {
		for d, l := range hebrewDayLetters {
			if letter == l {
				return time.Weekday(d), true
			}
		}
	}
	return 0, false
}

// WeekdayName renders a weekday for the closest supported locale.
func WeekdayName(d time.Weekday, tag language.Tag) string {
	_, idx, _ := localeMatcher.Match(tag)
	return weekdayNames[supportedLocales[idx]][d]
}

// FindDayIndex returns the index of the first entry in days naming d, or -1.
func FindDayIndex(days []string, d time.Weekday) int {
	for i, name := range days {
		if wd, ok := ParseWeekday(name); ok && wd == d {
			return i
		}
	}
	return -1
}
