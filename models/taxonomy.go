package models

import (
	"fmt"
	"sort"

	"lexamen/utils"
)

// Subject is the branch of law a study item belongs to.
type Subject string

const (
	SubjectCivil    Subject = "CIVIL"
	SubjectProcesal Subject = "PROCESAL"
)

// Topic is a curriculum sub-subject. Topics are a closed set.
type Topic string

type topicInfo struct {
	subject Subject
	label   string
	order   int
}

var topics = map[Topic]topicInfo{}

func register(subject Subject, entries ...[2]string) {
	for _, e := range entries {
		topics[Topic(e[0])] = topicInfo{subject: subject, label: e[1], order: len(topics)}
	}
}

func init() {
	register(SubjectCivil,
		[2]string{"REGULACION_CONDUCTA", "Regulación de la Conducta"},
		[2]string{"CONCEPTO_DERECHO", "Concepto de Derecho"},
		[2]string{"ORDENAMIENTO_JURIDICO", "Ordenamiento Jurídico"},
		[2]string{"NORMA_JURIDICA", "Norma Jurídica"},
		[2]string{"COMPONENTES_NORMA", "Componentes de la Norma"},
		[2]string{"TAXONOMIA_NORMAS", "Taxonomía de las Normas"},
		[2]string{"COSTUMBRE_JURISPRUDENCIA", "Costumbre y Jurisprudencia"},
		[2]string{"ESTADO_DE_DERECHO", "Estado de Derecho"},
		[2]string{"LA_LEY", "La Ley"},
		[2]string{"ORIGEN_DEFINICION_LEY", "Origen y Definición de la Ley"},
		[2]string{"REQUISITOS_CARACTERISTICAS", "Requisitos y Características"},
		[2]string{"CLASIFICACION_LEYES", "Clasificación de las Leyes"},
		[2]string{"JERARQUIA_NORMAS", "Jerarquía de las Normas"},
		[2]string{"CONSTITUCIONALIDAD", "Constitucionalidad"},
		[2]string{"POTESTAD_REGLAMENTARIA", "Potestad Reglamentaria"},
		[2]string{"DECRETOS_Y_DFL", "Decretos y DFL"},
		[2]string{"INTERPRETACION_LEY", "Interpretación de la Ley"},
		[2]string{"INTEGRACION_LEY", "Integración de la Ley"},
		[2]string{"EFECTOS_LEY", "Efectos de la Ley"},
		[2]string{"CONCEPTO_ORIGEN_DERECHO_CIVIL", "Concepto y Origen del Derecho Civil"},
		[2]string{"CODIFICACION_CODIGO_CIVIL", "Codificación y Código Civil"},
		[2]string{"ESTRUCTURA_PROYECCION", "Estructura y Proyección"},
		[2]string{"PRINCIPIOS_FUNDAMENTALES", "Principios Fundamentales"},
		[2]string{"DERECHO_CIVIL_ACTUALIDAD", "Derecho Civil en la Actualidad"},
		[2]string{"PERSONA_NATURAL", "Persona Natural"},
		[2]string{"MUERTE_PRESUNTA", "Muerte Presunta"},
		[2]string{"NATURALEZA_CLASIFICACION", "Naturaleza y Clasificación"},
		[2]string{"RESPONSABILIDAD", "Responsabilidad"},
		[2]string{"ATRIBUTOS_PERSONALIDAD", "Atributos de la Personalidad"},
		[2]string{"NOMBRE_ESTADO_CIVIL", "Nombre y Estado Civil"},
		[2]string{"CAPACIDAD_PATRIMONIO", "Capacidad y Patrimonio"},
		[2]string{"DOMICILIO", "Domicilio"},
		[2]string{"ACTO_JURIDICO", "Acto Jurídico"},
	)
	register(SubjectProcesal,
		[2]string{"JURISDICCION", "Jurisdicción"},
	)
}

func (s Subject) Valid() bool {
	return s == SubjectCivil || s == SubjectProcesal
}

// ParseSubject accepts any spelling that slugs to a known subject ("Civil", "civil").
func ParseSubject(raw string) (Subject, error) {
	s := Subject(utils.TaxonomyKey(raw))
	if !s.Valid() {
		return "", fmt.Errorf("unknown subject %q", raw)
	}
	return s, nil
}

// ParseTopic accepts any spelling that slugs to a known topic
// ("acto-juridico", "Acto Jurídico", "ACTO_JURIDICO").
func ParseTopic(raw string) (Topic, error) {
	t := Topic(utils.TaxonomyKey(raw))
	if !t.Valid() {
		return "", fmt.Errorf("unknown topic %q", raw)
	}
	return t, nil
}

func (t Topic) Valid() bool {
	_, ok := topics[t]
	return ok
}

func (t Topic) Subject() Subject { return topics[t].subject }

// Label is the display name of the topic.
func (t Topic) Label() string {
	if info, ok := topics[t]; ok {
		return info.label
	}
	return utils.TaxonomyLabel(string(t))
}

// Topics returns every known topic in curriculum order.
func Topics() []Topic {
	out := make([]Topic, 0, len(topics))
	for t := range topics {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return topics[out[i]].order < topics[out[j]].order })
	return out
}
