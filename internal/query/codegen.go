package query

import (
	"fmt"
	"strconv"
	"strings"
)

// MethodListLimit caps the rows emitted by the method list serializer.
const MethodListLimit = 500

// TruncatedMarker starts the trailer line written when the method list
// serializer dropped rows. The second field is the total number of methods.
const TruncatedMarker = "%TRUNCATED%"

const ack = "ok"

// Escape doubles every single quote so s can sit inside a quoted literal.
// It is the only injection defense for caller supplied text.
func Escape(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// Quote renders s as a string literal.
func Quote(s string) string {
	return "'" + Escape(s) + "'"
}

// SymbolLiteral renders s as a quoted symbol literal.
func SymbolLiteral(s string) string {
	return "#" + Quote(s)
}

func dictionaryExpr(dictIndex int) string {
	return "(System myUserProfile symbolList at: " + strconv.Itoa(dictIndex) + ")"
}

func classExpr(dictIndex int, className string) string {
	return "(" + dictionaryExpr(dictIndex) + " at: " + SymbolLiteral(className) + ")"
}

func behaviorExpr(dictIndex int, className string, isMeta bool) string {
	if isMeta {
		return "(" + classExpr(dictIndex, className) + " class)"
	}
	return classExpr(dictIndex, className)
}

func metaFlag(isMeta bool) string {
	if isMeta {
		return "1"
	}
	return "0"
}

func DictionaryNamesCode() string {
	return `| ws |
ws := WriteStream on: String new.
System myUserProfile symbolList do: [:each |
	ws nextPutAll: each name asString; lf].
ws contents`
}

// DictionaryEntriesCode classifies every entry of one dictionary as
// isClass TAB category TAB name.
func DictionaryEntriesCode(dictIndex int) string {
	return `| ws |
ws := WriteStream on: String new.
` + dictionaryExpr(dictIndex) + ` keysAndValuesDo: [:key :value |
	(value isBehavior and: [value name == key])
		ifTrue: [ws nextPutAll: '1'; tab; nextPutAll: (value category ifNil: ['']) asString]
		ifFalse: [ws nextPutAll: '0'; tab].
	ws tab; nextPutAll: key asString; lf].
ws contents`
}

// ClassEnvironmentsCode enumerates both sides of a class across environments
// 0..maxEnv as isMeta TAB env TAB category TAB selector. Empty categories are
// emitted with an empty selector.
func ClassEnvironmentsCode(dictIndex int, className string, maxEnv int) string {
	if maxEnv < 0 {
		maxEnv = 0
	}
	return `| ws class emit |
ws := WriteStream on: String new.
class := ` + classExpr(dictIndex, className) + `.
emit := [:meta :env :category :selector |
	ws nextPutAll: meta; tab; nextPutAll: env printString; tab; nextPutAll: category asString; tab; nextPutAll: selector; lf].
{class. class class} doWithIndex: [:behavior :index | | meta |
	meta := index = 1 ifTrue: ['0'] ifFalse: ['1'].
	0 to: ` + strconv.Itoa(maxEnv) + ` do: [:env |
		behavior env: env categorysDo: [:category :selectors |
			selectors isEmpty
				ifTrue: [emit value: meta value: env value: category value: '']
				ifFalse: [selectors do: [:selector | emit value: meta value: env value: category value: selector asString]]]]].
ws contents`
}

func ClassDefinitionCode(dictIndex int, className string) string {
	return classExpr(dictIndex, className) + " definition asString"
}

func ClassCommentCode(dictIndex int, className string) string {
	return "(" + classExpr(dictIndex, className) + " comment ifNil: ['']) asString"
}

func MethodSourceCode(dictIndex int, className string, isMeta bool, selector string, env int) string {
	return "(" + behaviorExpr(dictIndex, className, isMeta) +
		" compiledMethodAt: " + SymbolLiteral(selector) +
		" environmentId: " + strconv.Itoa(env) + ") sourceString asString"
}

func GlobalPrintStringCode(dictIndex int, name string) string {
	return "(" + dictionaryExpr(dictIndex) + " at: " + SymbolLiteral(name) + ") printString"
}

// methodListCode serializes the methods answered by methodsExpr as
// dictionary TAB class TAB meta TAB selector TAB category. The class to
// dictionary map is built once per call.
func methodListCode(methodsExpr string) string {
	return `| ws methods dicts count limit |
ws := WriteStream on: String new.
limit := ` + strconv.Itoa(MethodListLimit) + `.
methods := ` + methodsExpr + `.
dicts := IdentityDictionary new.
System myUserProfile symbolList do: [:dict |
	dict keysAndValuesDo: [:key :value |
		(value isBehavior and: [(dicts includesKey: value) not])
			ifTrue: [dicts at: value put: dict name]]].
count := 0.
methods do: [:method | | behavior class |
	count < limit ifTrue: [
		behavior := method inClass.
		class := behavior theNonMetaClass.
		ws nextPutAll: (dicts at: class ifAbsent: ['']) asString; tab;
			nextPutAll: class name asString; tab;
			nextPutAll: (behavior isMeta ifTrue: ['1'] ifFalse: ['0']); tab;
			nextPutAll: method selector asString; tab;
			nextPutAll: ((behavior categoryOfSelector: method selector) ifNil: ['']) asString; lf].
	count := count + 1].
count > limit ifTrue: [
	ws nextPutAll: '` + TruncatedMarker + `'; tab; nextPutAll: count printString; lf].
ws contents`
}

func ImplementorsCode(selector string) string {
	return methodListCode("ClassOrganizer new implementorsOf: " + SymbolLiteral(selector))
}

func SendersCode(selector string) string {
	return methodListCode("(ClassOrganizer new sendersOf: " + SymbolLiteral(selector) + ") first")
}

func ReferencesCode(className string) string {
	return methodListCode("ClassOrganizer new referencesToObject: (System myUserProfile symbolList objectNamed: " + SymbolLiteral(className) + ")")
}

func MethodsContainingCode(term string) string {
	return methodListCode("(ClassOrganizer new substringSearch: " + Quote(term) + ") first")
}

// ClassHierarchyCode lists the superclass chain root first, the class itself,
// then its direct subclasses sorted by name, as dictionary TAB class TAB kind.
func ClassHierarchyCode(dictIndex int, className string) string {
	return `| ws class list emit |
ws := WriteStream on: String new.
list := System myUserProfile symbolList.
class := ` + classExpr(dictIndex, className) + `.
emit := [:each :kind | | pair |
	pair := list dictionaryAndSymbolOf: each.
	ws nextPutAll: (pair isNil ifTrue: [''] ifFalse: [pair first name asString]); tab;
		nextPutAll: each name asString; tab; nextPutAll: kind; lf].
class allSuperclasses reverseDo: [:each | emit value: each value: 'superclass'].
emit value: class value: 'target'.
(class subclasses asSortedCollection: [:a :b | a name <= b name])
	do: [:each | emit value: each value: 'subclass'].
ws contents`
}

// FindClassCode lists index TAB dictionary name for every dictionary that
// binds className to a class.
func FindClassCode(className string) string {
	return `| ws |
ws := WriteStream on: String new.
System myUserProfile symbolList doWithIndex: [:dict :index |
	((dict at: ` + SymbolLiteral(className) + ` ifAbsent: [nil]) isBehavior)
		ifTrue: [ws nextPutAll: index printString; tab; nextPutAll: dict name asString; lf]].
ws contents`
}

func acknowledged(statements ...string) string {
	return strings.Join(statements, ".\n") + ".\n" + Quote(ack)
}

func DeleteMethodCode(dictIndex int, className string, isMeta bool, selector string, env int) string {
	return acknowledged(behaviorExpr(dictIndex, className, isMeta) +
		" removeSelector: " + SymbolLiteral(selector) +
		" environmentId: " + strconv.Itoa(env))
}

func RecategorizeMethodCode(dictIndex int, className string, isMeta bool, selector, category string) string {
	return acknowledged(behaviorExpr(dictIndex, className, isMeta) +
		" moveMethod: " + SymbolLiteral(selector) +
		" toCategory: " + SymbolLiteral(category))
}

func RenameCategoryCode(dictIndex int, className string, isMeta bool, oldName, newName string) string {
	return acknowledged(behaviorExpr(dictIndex, className, isMeta) +
		" renameCategory: " + SymbolLiteral(oldName) +
		" to: " + SymbolLiteral(newName))
}

func DeleteClassCode(dictIndex int, className string) string {
	return acknowledged(dictionaryExpr(dictIndex) + " removeKey: " + SymbolLiteral(className))
}

func MoveClassCode(fromIndex, toIndex int, className string) string {
	return "| class |\n" + acknowledged(
		"class := "+classExpr(fromIndex, className),
		dictionaryExpr(toIndex)+" at: "+SymbolLiteral(className)+" put: class",
		dictionaryExpr(fromIndex)+" removeKey: "+SymbolLiteral(className),
	)
}

func AddDictionaryCode(name string) string {
	return "| dict |\n" + acknowledged(
		"dict := SymbolDictionary new",
		"dict name: "+SymbolLiteral(name),
		"System myUserProfile insertDictionary: dict at: System myUserProfile symbolList size + 1",
	)
}

func RemoveDictionaryCode(dictIndex int) string {
	return acknowledged("System myUserProfile removeDictionary: " + dictionaryExpr(dictIndex))
}

// MoveDictionaryCode moves the dictionary at dictIndex by delta positions.
// The range check runs remotely because only the remote side knows the
// list size.
func MoveDictionaryCode(dictIndex, delta int) string {
	return fmt.Sprintf(`| list dict target |
list := System myUserProfile symbolList.
target := %d + %d.
(target between: 1 and: list size)
	ifFalse: [Error signal: 'dictionary index out of range'].
`, dictIndex, delta) + acknowledged(
		"dict := list at: "+strconv.Itoa(dictIndex),
		"System myUserProfile removeDictionary: dict",
		"System myUserProfile insertDictionary: dict at: target",
	)
}

func SetClassCommentCode(dictIndex int, className, comment string) string {
	return acknowledged(classExpr(dictIndex, className) + " comment: " + Quote(comment))
}

func CommitCode() string {
	return "System commitTransaction ifTrue: [" + Quote(ack) + "] ifFalse: ['conflict']"
}

func AbortCode() string {
	return acknowledged("System abortTransaction")
}
