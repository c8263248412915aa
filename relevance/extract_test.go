package relevance

import (
	"sort"
	"testing"
)

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func assertHas(t *testing.T, set map[string]struct{}, want ...string) {
	t.Helper()
	for _, w := range want {
		if _, ok := set[w]; !ok {
			t.Errorf("expected %q in %v", w, keys(set))
		}
	}
}

func Test_extractKeywords(t *testing.T) {
	kw := extractKeywords("src/auth-service/user_profile.page.tsx")
	assertHas(t, kw, "user", "profile", "page", "auth-service")
	if _, ok := kw["src"]; ok {
		t.Error("generic segment src must be excluded")
	}
}

func Test_extractKeywords_DropsShortFragments(t *testing.T) {
	kw := extractKeywords("ui/db-io.go")
	if len(kw) != 0 {
		t.Errorf("expected no keywords, got %v", keys(kw))
	}
}

func Test_extractImports_ESModules(t *testing.T) {
	content := `import React, { useState as useLocalState } from 'react'
import * as api from "./services/api"
import './styles.css'
const fs = require('fs')
`
	imports := extractImports("TypeScript", content)
	assertHas(t, imports, "react", "usestate", "uselocalstate", "api", "styles", "fs")
}

func Test_extractExports_ESModules(t *testing.T) {
	content := `export default class SessionStore {}
export async function refreshToken() {}
export const TOKEN_TTL = 5
export { login, logout as signOut } from './auth'
export * as helpers from './helpers'
module.exports = legacyThing
`
	exports := extractExports("TypeScript", content)
	assertHas(t, exports, "sessionstore", "refreshtoken", "token_ttl", "login", "logout", "signout", "helpers", "legacything")
}

func Test_extractImportsAndExports_Go(t *testing.T) {
	content := `package cache

import (
	"sync"
	xx "github.com/cespare/xxhash/v2"
)

func New() *Cache { return nil }
type Cache struct{}
func (c *Cache) Get(key string) {}
func helper() {}
`
	imports := extractImports("Go", content)
	assertHas(t, imports, "sync", "xx")
	exports := extractExports("Go", content)
	assertHas(t, exports, "new", "cache", "get")
	if _, ok := exports["helper"]; ok {
		t.Error("unexported Go function must not be an export")
	}
}

func Test_extractImportsAndExports_Python(t *testing.T) {
	content := `from app.models import User, Session
import numpy as np

class LoginView:
    pass

def authenticate(request):
    pass
`
	imports := extractImports("Python", content)
	assertHas(t, imports, "models", "user", "session", "numpy", "np")
	exports := extractExports("Python", content)
	assertHas(t, exports, "loginview", "authenticate")
}
