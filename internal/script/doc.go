// Package script provides value providers backed by Lua scripts. A script
// computes a property's value from the values of the properties it depends
// on, which are bound to Lua locals of the same (sanitized) name
package script
