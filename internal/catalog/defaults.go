package catalog

import (
	"strings"

	"github.com/jonathan/resume-analyzer/internal/types"
)

// Field names of the built-in table.
const (
	FieldDataScience = "Data Science"
	FieldWebDev      = "Web Development"
	FieldAndroid     = "Android Development"
	FieldIOS         = "iOS Development"
	FieldUIUX        = "UI-UX Development"
)

// defaultEntries is the built-in table used when no catalog source is
// configured or the configured one cannot be used.
var defaultEntries = []types.FieldCatalogEntry{
	{
		Name: FieldDataScience,
		Keywords: []string{
			"tensorflow", "keras", "pytorch", "machine learning", "deep learning",
			"flask", "streamlit", "scikit-learn", "numpy", "pandas", "python",
			"data science", "data visualization",
		},
		Skills: []string{
			"Data Visualization", "Predictive Analysis", "Statistical Modeling", "Data Mining",
			"ML Algorithms", "Keras", "Pytorch", "Scikit-learn", "Tensorflow", "Flask", "Streamlit",
		},
		Courses: []types.Course{
			{Title: "Machine Learning Crash Course by Google [Free]", URL: "https://developers.google.com/machine-learning/crash-course"},
			{Title: "Machine Learning A-Z by Udemy", URL: "https://www.udemy.com/course/machinelearning/"},
			{Title: "Machine Learning by Andrew NG", URL: "https://www.coursera.org/learn/machine-learning"},
			{Title: "Data Scientist Master Program of Simplilearn (IBM)", URL: "https://www.simplilearn.com/big-data-and-analytics/senior-data-scientist-masters-program-training"},
			{Title: "Data Science Foundations: Fundamentals by LinkedIn", URL: "https://www.linkedin.com/learning/data-science-foundations-fundamentals-5"},
		},
	},
	{
		Name: FieldWebDev,
		Keywords: []string{
			"react", "django", "node js", "react js", "php", "laravel", "magento", "wordpress",
			"javascript", "angular", "c#", "flask", "express", "html", "css",
		},
		Skills: []string{"React", "Django", "Node JS", "React JS", "Javascript", "Angular JS", "Flask"},
		Courses: []types.Course{
			{Title: "Django Crash course [Free]", URL: "https://youtu.be/e1IyzVyrLSU"},
			{Title: "Python and Django Full Stack Web Developer Bootcamp", URL: "https://www.udemy.com/course/python-and-django-full-stack-web-developer-bootcamp"},
			{Title: "React Crash Course [Free]", URL: "https://youtu.be/Dorf8i6lCuk"},
		},
	},
	{
		Name:     FieldAndroid,
		Keywords: []string{"android", "android development", "flutter", "kotlin", "xml", "kivy", "java"},
		Skills: []string{
			"Android", "Flutter", "Kotlin", "Java", "XML", "Android Studio", "Firebase", "SQLite", "Material Design",
		},
		Courses: []types.Course{
			{Title: "Android Development for Beginners [Free]", URL: "https://youtu.be/fis26HvvDII"},
			{Title: "Android App Development Specialization", URL: "https://www.coursera.org/specializations/android-app-development"},
			{Title: "Complete Android Developer Course", URL: "https://www.udemy.com/course/complete-android-n-developer-course/"},
		},
	},
	{
		Name:     FieldIOS,
		Keywords: []string{"ios", "ios development", "swift", "cocoa", "cocoa touch", "xcode", "objective-c"},
		Skills:   []string{"IOS", "Swift", "Xcode", "Objective-C", "Core Data", "UIKit", "SwiftUI"},
		Courses: []types.Course{
			{Title: "iOS & Swift - The Complete iOS App Development Bootcamp", URL: "https://www.udemy.com/course/ios-13-app-development-bootcamp/"},
			{Title: "iOS App Development with Swift", URL: "https://www.coursera.org/specializations/app-development"},
		},
	},
	{
		Name: FieldUIUX,
		Keywords: []string{
			"ux", "adobe xd", "figma", "zeplin", "balsamiq", "ui", "prototyping", "wireframes",
			"storyframes", "adobe photoshop", "photoshop", "editing", "adobe illustrator",
			"illustrator", "after effects", "premier pro", "indesign", "wireframe", "user research", "sketch",
		},
		Skills: []string{
			"UI", "UX", "Figma", "Adobe XD", "Sketch", "Prototyping", "User Research", "Wireframing", "Visual Design",
		},
		Courses: []types.Course{
			{Title: "Google UX Design Professional Certificate", URL: "https://www.coursera.org/professional-certificates/google-ux-design"},
			{Title: "UI/UX Design Specialization", URL: "https://www.coursera.org/specializations/ui-ux-design"},
		},
	},
}

var defaultCatalog = MustNew(defaultEntries)

// Default returns the built-in catalog. It always defines the five default fields.
func Default() *Catalog {
	return defaultCatalog
}

// defaultKeywordsFor returns the built-in keyword set for a field name, used
// to complete legacy catalog files that only list skills and courses.
// Matching ignores case, so the older "IOS Development" spelling resolves too.
func defaultKeywordsFor(name string) []string {
	for _, e := range defaultEntries {
		if strings.EqualFold(e.Name, name) {
			return append([]string(nil), e.Keywords...)
		}
	}
	return nil
}
