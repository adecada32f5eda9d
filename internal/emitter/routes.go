package emitter

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/scenc/scenc/internal/model"
)

// Route-file schema consumed by the backing simulator: vehicle type
// definitions followed by depart-sorted vehicles, each with its concrete
// edge sequence.

type xmlRoutes struct {
	XMLName  xml.Name     `xml:"routes"`
	VTypes   []xmlVType   `xml:"vType"`
	Vehicles []xmlVehicle `xml:"vehicle"`
}

type xmlVType struct {
	ID       string `xml:"id,attr"`
	Length   string `xml:"length,attr,omitempty"`
	Width    string `xml:"width,attr,omitempty"`
	MaxSpeed string `xml:"maxSpeed,attr,omitempty"`
	Accel    string `xml:"accel,attr,omitempty"`
	Decel    string `xml:"decel,attr,omitempty"`
	Sigma    string `xml:"sigma,attr,omitempty"`
	MinGap   string `xml:"minGap,attr,omitempty"`
}

type xmlVehicle struct {
	ID     string   `xml:"id,attr"`
	Type   string   `xml:"type,attr"`
	Depart string   `xml:"depart,attr"`
	Route  xmlRoute `xml:"route"`
}

type xmlRoute struct {
	Edges string `xml:"edges,attr"`
}

func marshalRoutes(t *model.Traffic) ([]byte, error) {
	doc := xmlRoutes{}
	for _, actor := range t.Types {
		doc.VTypes = append(doc.VTypes, xmlVType{
			ID:       actor.Name,
			Length:   attrFloat(actor.Length),
			Width:    attrFloat(actor.Width),
			MaxSpeed: attrFloat(actor.MaxSpeed),
			Accel:    attrFloat(actor.Accel),
			Decel:    attrFloat(actor.Decel),
			Sigma:    attrFloat(actor.Sigma),
			MinGap:   attrFloat(actor.MinGap),
		})
	}
	for _, s := range t.Spawns {
		doc.Vehicles = append(doc.Vehicles, xmlVehicle{
			ID:     s.ID,
			Type:   s.Actor,
			Depart: fmt.Sprintf("%.2f", s.Depart),
			Route:  xmlRoute{Edges: strings.Join(s.RouteEdges, " ")},
		})
	}
	data, err := xml.MarshalIndent(doc, "", "    ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}

func attrFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%g", v)
}
